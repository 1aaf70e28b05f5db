package realtime

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/ports"
)

// Handler upgrades authenticated HTTP requests into hub-managed websocket
// clients. Browsers cannot set headers on websocket handshakes, so the token
// is accepted from the `token` query parameter as well as the Authorization
// header.
type Handler struct {
	hub       *Hub
	chat      ports.ChatService
	jwtSecret string
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, chat ports.ChatService, jwtSecret string) *Handler {
	return &Handler{
		hub:       hub,
		chat:      chat,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve handles GET /api/v1/ws.
func (h *Handler) Serve(c echo.Context) error {
	userID, err := h.authenticate(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	client := newClient(h.hub, conn, userID, h.chat)
	h.hub.register(client)
	metrics.WSConnections.Inc()

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Handler) authenticate(c echo.Context) (string, error) {
	token := c.QueryParam("token")
	if token == "" {
		header := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}
	return sub, nil
}
