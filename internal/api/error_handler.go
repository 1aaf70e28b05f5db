package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors:
// {"status":"error","message":"<text>"}.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the consistent JSON envelope with a "status" discriminator.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Status: "error", Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, domain.ErrOTPInvalid):
		return http.StatusUnauthorized, "invalid verification code"
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusUnauthorized, "verification code expired"
	case errors.Is(err, domain.ErrOTPThrottled):
		return http.StatusTooManyRequests, "verification code requested too recently"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, domain.ErrInvalidListing):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrTooManyImages):
		return http.StatusBadRequest, "too many images"
	case errors.Is(err, domain.ErrUnsupportedImage):
		return http.StatusBadRequest, "unsupported image type"
	case errors.Is(err, domain.ErrInspectionUnavailable):
		return http.StatusServiceUnavailable, "inspection service unavailable"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound, "conversation not found"
	case errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound, "message not found"
	case errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden, "not a conversation participant"
	case errors.Is(err, domain.ErrNotAnOffer):
		return http.StatusUnprocessableEntity, "message is not an offer"
	case errors.Is(err, domain.ErrOfferClosed):
		return http.StatusUnprocessableEntity, "offer already answered"
	case errors.Is(err, domain.ErrReportNotFound):
		return http.StatusNotFound, "report not found"
	case errors.Is(err, domain.ErrReportClosed):
		return http.StatusUnprocessableEntity, "report already resolved"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
