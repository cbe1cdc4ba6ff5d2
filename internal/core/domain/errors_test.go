package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_UnauthorizedMatching(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{401, true},
		{403, true},
		{400, false},
		{404, false},
		{500, false},
	}
	for _, tc := range cases {
		err := fmt.Errorf("call: %w", &APIError{Status: tc.status, Path: "/users/me"})
		if got := IsUnauthorized(err); got != tc.want {
			t.Fatalf("status %d: IsUnauthorized = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"backend message wins", fmt.Errorf("wrap: %w", &APIError{Status: 400, Message: "Phone already used"}), "Phone already used"},
		{"validation", NewValidationError("amount", "too small"), "amount: too small"},
		{"validation without field", &ValidationError{Message: "bad input"}, "bad input"},
		{"message already names field", NewValidationError("email", "email is required"), "email is required"},
		{"field only as a word prefix", NewValidationError("amount", "amountless transfer"), "amount: amountless transfer"},
		{"plain error", ErrTimeout, ErrTimeout.Error()},
		{"empty text", errors.New(""), DefaultErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.err); got != tc.want {
				t.Fatalf("UserMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("x: %w", NewValidationError("f", "m"))) {
		t.Fatal("wrapped validation error not detected")
	}
	if IsValidation(ErrPaymentFailed) {
		t.Fatal("sentinel reported as validation error")
	}
}

func TestValidationError_NamesFieldOnce(t *testing.T) {
	cases := []struct {
		err  *ValidationError
		want string
	}{
		{NewValidationError("email", "email is required"), "email is required"},
		{NewValidationError("amount", "must be at least 500"), "amount: must be at least 500"},
		{NewValidationError("", "invalid payload"), "invalid payload"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
