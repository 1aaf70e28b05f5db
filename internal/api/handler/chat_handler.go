package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

type ChatHandler struct {
	chat ports.ChatService
}

func NewChatHandler(chat ports.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// OpenConversation starts (or returns) the buyer's thread on a listing.
func (h *ChatHandler) OpenConversation(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req openConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conv, err := h.chat.OpenConversation(c.Request().Context(), req.ListingID, userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, conv)
}

// ListConversations returns the authenticated user's threads.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	convs, err := h.chat.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, convs)
}

// SendMessage posts a message over HTTP. The realtime path does the same
// through the websocket hub; both persist via the chat service.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.chat.SendMessage(c.Request().Context(), ports.SendMessageInput{
		ConversationID: c.Param("id"),
		SenderID:       userID,
		Type:           domain.MessageType(req.Type),
		Content:        req.Content,
		OfferPricePKR:  req.OfferPricePKR,
		PhoneNumber:    req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	metrics.MessagesSentTotal.WithLabelValues(string(msg.Type)).Inc()
	if msg.Type == domain.MessageOffer {
		metrics.OffersTotal.WithLabelValues("made").Inc()
	}
	return respond(c, http.StatusCreated, msg)
}

// ListMessages pages a conversation's history.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var q listMessagesQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	result, err := h.chat.ListMessages(c.Request().Context(), c.Param("id"), userID, q.Page, q.Limit)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, listMessagesResponse{
		Items: result.Items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

// RespondToOffer answers a pending offer message.
func (h *ChatHandler) RespondToOffer(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req respondToOfferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	offer, companion, err := h.chat.RespondToOffer(c.Request().Context(), ports.RespondToOfferInput{
		MessageID:       c.Param("messageId"),
		ActorID:         userID,
		Action:          ports.OfferAction(req.Action),
		CounterPricePKR: req.CounterPricePKR,
	})
	if err != nil {
		return err
	}

	metrics.OffersTotal.WithLabelValues(offerMetricAction(req.Action)).Inc()
	return respond(c, http.StatusOK, offerResponse{Offer: offer, Companion: companion})
}

// MarkRead flags the conversation as read by the caller.
func (h *ChatHandler) MarkRead(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	ids, err := h.chat.MarkRead(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, markReadResponse{MessageIDs: ids})
}

func offerMetricAction(action string) string {
	switch action {
	case "accept":
		return "accepted"
	case "reject":
		return "rejected"
	default:
		return "countered"
	}
}
