package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrUnauthorized        = errors.New("session expired or unauthorized")
	ErrTimeout             = errors.New("request timed out, please retry")
	ErrPollTimeout         = errors.New("payment confirmation timed out")
	ErrPaymentFailed       = errors.New("payment failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoPaymentConfig     = errors.New("no payment configuration")
	ErrRechargeNotFound    = errors.New("recharge not tracked")
)

// DefaultErrorMessage is surfaced when neither the backend nor the transport gave one.
const DefaultErrorMessage = "an unexpected error occurred"

// ValidationError is a client-side input error caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

// Error prefixes the field unless the message already starts with it.
func (e *ValidationError) Error() string {
	if e.Field == "" || strings.HasPrefix(e.Message, e.Field+" ") {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// APIError is a non-2xx answer from the wallet backend.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s: %d %s", e.Path, e.Status, e.Message)
}

// Unauthorized reports whether the backend rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Is lets errors.Is(err, ErrUnauthorized) match 401/403 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Unauthorized()
}

// IsUnauthorized reports whether err means the current token must be dropped.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage returns the best human-readable message for err: the backend
// message when there is one, then the error's own text, then the default.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
