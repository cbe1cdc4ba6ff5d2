package handler

import (
	"github.com/fedawallet/wallet-client/internal/pkg/validate"
)

// echoValidator lets Echo call c.Validate(req) with the shared validator, so
// handler-level request structs fail with the same *domain.ValidationError the
// services return.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return validate.Struct(i)
}
