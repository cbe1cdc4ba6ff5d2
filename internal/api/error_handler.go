package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Relays backend 4xx answers with the backend's own message.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// unauthorizedMessage keeps the backend's wording ("Invalid credentials")
// and falls back to the generic session message.
func unauthorizedMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return domain.ErrUnauthorized.Error()
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case domain.IsUnauthorized(err):
		return http.StatusUnauthorized, unauthorizedMessage(err)
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient balance"
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusUnprocessableEntity, "payment failed"
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout, domain.ErrPollTimeout.Error()
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, domain.ErrTimeout.Error()
	case errors.Is(err, domain.ErrNoPaymentConfig):
		return http.StatusNotFound, "no payment configuration"
	case errors.Is(err, domain.ErrRechargeNotFound):
		return http.StatusNotFound, "recharge not found"
	case errors.Is(err, context.Canceled):
		return http.StatusConflict, "operation cancelled"
	}

	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, domain.UserMessage(apiErr)
		}
		log.Warn().
			Err(err).
			Int("backend_status", apiErr.Status).
			Str("path", c.Path()).
			Msg("backend error")
		return http.StatusBadGateway, domain.UserMessage(apiErr)
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
