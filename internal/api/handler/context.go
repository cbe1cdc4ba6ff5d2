package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

// bind decodes the request into req. Malformed JSON is a 400 with a fixed
// message; field checks are left to the service receiving req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}

// bindValid is bind followed by c.Validate, for request types that exist only
// at the HTTP layer.
func bindValid(c echo.Context, req any) error {
	if err := bind(c, req); err != nil {
		return err
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// queryInt reads a non-negative integer query parameter; absent means 0.
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, name+" must be a non-negative integer")
	}
	return n, nil
}
