package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.NewValidationError("amount", "minimum recharge is 500 XOF"), http.StatusBadRequest, "amount: minimum recharge is 500 XOF"},
		{"not authenticated", domain.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
		{"backend 401 keeps message", fmt.Errorf("login: %w", &domain.APIError{Status: 401, Message: "Invalid credentials"}), http.StatusUnauthorized, "Invalid credentials"},
		{"backend 403 keeps message", &domain.APIError{Status: 403, Message: "Account suspended"}, http.StatusUnauthorized, "Account suspended"},
		{"backend 401 without message", fmt.Errorf("refresh: %w", &domain.APIError{Status: 401}), http.StatusUnauthorized, domain.ErrUnauthorized.Error()},
		{"bare unauthorized sentinel", domain.ErrUnauthorized, http.StatusUnauthorized, domain.ErrUnauthorized.Error()},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusUnprocessableEntity, "insufficient balance"},
		{"payment failed", domain.ErrPaymentFailed, http.StatusUnprocessableEntity, "payment failed"},
		{"poll timeout", fmt.Errorf("await: %w", domain.ErrPollTimeout), http.StatusGatewayTimeout, domain.ErrPollTimeout.Error()},
		{"request timeout", domain.ErrTimeout, http.StatusGatewayTimeout, domain.ErrTimeout.Error()},
		{"no config", domain.ErrNoPaymentConfig, http.StatusNotFound, "no payment configuration"},
		{"unknown recharge", domain.ErrRechargeNotFound, http.StatusNotFound, "recharge not found"},
		{"cancelled", context.Canceled, http.StatusConflict, "operation cancelled"},
		{"backend 4xx relayed", &domain.APIError{Status: 409, Message: "Email already used"}, http.StatusConflict, "Email already used"},
		{"backend 5xx", &domain.APIError{Status: 500, Message: "boom"}, http.StatusBadGateway, "boom"},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tc.msg {
				t.Fatalf("expected message %q, got %q", tc.msg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponseIsLeftAlone(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusAccepted)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusAccepted || rec.Body.Len() != 0 {
		t.Fatalf("committed response modified: %d %q", rec.Code, rec.Body.String())
	}
}
