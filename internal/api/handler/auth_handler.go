package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	users       ports.UserRepository
}

func NewAuthHandler(authService ports.AuthService, users ports.UserRepository) *AuthHandler {
	return &AuthHandler{authService: authService, users: users}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Phone    string `json:"phone"    validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=buyer seller"`
}

type loginRequest struct {
	Email      string `json:"email"    validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Code  string `json:"code"  validate:"required,len=6"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User         *domain.User `json:"user,omitempty"`
	Token        string       `json:"token,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
	OTPRequired  bool         `json:"otpRequired,omitempty"`
}

// Register creates a new buyer or seller account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user. Admin accounts receive an OTP challenge instead
// of tokens and must complete VerifyOTP.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		return err
	}

	if result.OTPRequired {
		metrics.OTPIssuedTotal.Inc()
		return respond(c, http.StatusOK, authResponse{OTPRequired: true})
	}

	return respond(c, http.StatusOK, authResponse{
		User:         result.User,
		Token:        result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// VerifyOTP completes an admin login with the 6-digit SMS code.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.VerifyOTP(c.Request().Context(), req.Phone, req.Code)
	if err != nil {
		metrics.OTPVerifyTotal.WithLabelValues(otpResult(err)).Inc()
		return err
	}
	metrics.OTPVerifyTotal.WithLabelValues("ok").Inc()

	return respond(c, http.StatusOK, authResponse{
		User:         result.User,
		Token:        result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

// Refresh rotates a refresh token into a fresh token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, authResponse{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout revokes the refresh token. Always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, authResponse{User: user})
}

func otpResult(err error) string {
	switch err {
	case domain.ErrOTPExpired:
		return "expired"
	case domain.ErrOTPThrottled:
		return "throttled"
	default:
		return "invalid"
	}
}
