package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/service"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// AdminHandler exposes the administrator session and the admin console.
type AdminHandler struct {
	session AdminSessionService
	console AdminConsoleService
}

func NewAdminHandler(session AdminSessionService, console AdminConsoleService) *AdminHandler {
	return &AdminHandler{session: session, console: console}
}

// --- Session ---

// GetSession returns the cached admin session.
//
// @Summary      Current admin session
// @Tags         admin
// @Produce      json
// @Success      200  {object}  adminSessionResponse
// @Router       /admin/session [get]
func (h *AdminHandler) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, newAdminSessionResponse(h.session.Snapshot()))
}

// Login authenticates an administrator.
//
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      service.AdminLoginInput  true  "Admin credentials"
// @Success      200   {object}  adminSessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/session/login [post]
func (h *AdminHandler) Login(c echo.Context) error {
	var req service.AdminLoginInput
	if err := bind(c, &req); err != nil {
		return err
	}

	snap, err := h.session.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("admin_login").Inc()
	return c.JSON(http.StatusOK, newAdminSessionResponse(snap))
}

// Register creates an administrator with the shared admin secret, then logs in.
//
// @Summary      Admin registration
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      service.AdminRegisterInput  true  "Admin details and secret"
// @Success      201   {object}  adminSessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /admin/session/register [post]
func (h *AdminHandler) Register(c echo.Context) error {
	var req service.AdminRegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}

	snap, err := h.session.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("admin_login").Inc()
	return c.JSON(http.StatusCreated, newAdminSessionResponse(snap))
}

// Logout drops the admin session.
//
// @Summary      Admin logout
// @Tags         admin
// @Success      204
// @Router       /admin/session/logout [post]
func (h *AdminHandler) Logout(c echo.Context) error {
	h.session.Logout(c.Request().Context())
	metrics.SessionEventsTotal.WithLabelValues("admin_logout").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Profile refetches the administrator profile.
//
// @Summary      Admin profile
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /admin/profile [get]
func (h *AdminHandler) Profile(c echo.Context) error {
	user, err := h.session.FetchProfile(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile saves the administrator profile.
//
// @Summary      Update admin profile
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      service.AdminProfileInput  true  "Profile fields"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/profile [put]
func (h *AdminHandler) UpdateProfile(c echo.Context) error {
	var req service.AdminProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.session.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword changes the administrator password.
//
// @Summary      Change admin password
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      service.ChangePasswordInput  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/password [put]
func (h *AdminHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.session.ChangePassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// LastError returns the diagnostic record of the last failed admin call.
//
// @Summary      Last admin API failure
// @Tags         admin
// @Produce      json
// @Success      200  {object}  lastErrorResponse
// @Router       /admin/last-error [get]
func (h *AdminHandler) LastError(c echo.Context) error {
	failure, ok := h.session.LastFailure(c.Request().Context())
	return c.JSON(http.StatusOK, lastErrorResponse{Recorded: ok, Failure: failure})
}

// --- Console ---

// Dashboard loads every console panel in one call.
//
// @Summary      Admin dashboard
// @Tags         admin
// @Produce      json
// @Param        days  query     int  false  "Statistics window in days (default 30)"
// @Success      200   {object}  domain.AdminDashboard
// @Failure      401   {object}  errorResponse
// @Failure      504   {object}  errorResponse
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	days, err := queryInt(c, "days")
	if err != nil {
		return err
	}
	dashboard, err := h.console.Dashboard(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

// Users lists every user.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.console.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users, Count: len(users)})
}

// SetUserStatus activates or deactivates a user.
//
// @Summary      Set user status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      userStatusRequest  true  "New status"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/users/{id}/status [patch]
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req userStatusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.console.SetUserStatus(c.Request().Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Transactions lists every transaction, newest first.
//
// @Summary      List transactions
// @Tags         admin
// @Produce      json
// @Success      200  {object}  transactionsResponse
// @Failure      401  {object}  errorResponse
// @Router       /admin/transactions [get]
func (h *AdminHandler) Transactions(c echo.Context) error {
	txs, err := h.console.ListTransactions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transactionsResponse{Transactions: txs, Count: len(txs)})
}

// Payments lists provider payments.
//
// @Summary      List payments
// @Tags         admin
// @Produce      json
// @Success      200  {object}  paymentsResponse
// @Failure      401  {object}  errorResponse
// @Router       /admin/payments [get]
func (h *AdminHandler) Payments(c echo.Context) error {
	payments, err := h.console.ListPayments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentsResponse{Payments: payments, Count: len(payments)})
}

// Stats returns aggregate statistics over a window of days.
//
// @Summary      Statistics
// @Tags         admin
// @Produce      json
// @Param        days  query     int  false  "Window in days (default 30)"
// @Success      200   {object}  domain.AdminStats
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	days, err := queryInt(c, "days")
	if err != nil {
		return err
	}
	stats, err := h.console.Stats(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// PaymentConfig returns the provider configuration.
//
// @Summary      Payment configuration
// @Tags         admin
// @Produce      json
// @Success      200  {object}  domain.PaymentConfig
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/config [get]
func (h *AdminHandler) PaymentConfig(c echo.Context) error {
	cfg, err := h.console.PaymentConfig(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// SavePaymentConfig stores the provider keys.
//
// @Summary      Save payment configuration
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      service.PaymentConfigInput  true  "Provider keys"
// @Success      200   {object}  domain.PaymentConfig
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /admin/config [post]
func (h *AdminHandler) SavePaymentConfig(c echo.Context) error {
	var req service.PaymentConfigInput
	if err := bind(c, &req); err != nil {
		return err
	}

	cfg, err := h.console.SavePaymentConfig(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}
