package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/domain"
	"github.com/fedawallet/wallet-client/internal/core/service"
	"github.com/fedawallet/wallet-client/internal/pkg/metrics"
)

// SessionHandler exposes the end-user session: login, signup, logout, profile.
type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get returns the cached session without calling the backend.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionResponse(h.sessions.Session()))
}

// Login authenticates with email and password and loads the profile.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      service.LoginInput  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      504   {object}  errorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.sessions.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("login").Inc()
	return c.JSON(http.StatusOK, newSessionResponse(session))
}

// Signup registers a new account and logs into it.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      service.SignupInput  true  "Registration details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /session/signup [post]
func (h *SessionHandler) Signup(c echo.Context) error {
	var req service.SignupInput
	if err := bind(c, &req); err != nil {
		return err
	}

	session, err := h.sessions.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("signup").Inc()
	return c.JSON(http.StatusCreated, newSessionResponse(session))
}

// GoogleCallback adopts the token handed over by the OAuth redirect.
//
// @Summary      Google sign-in callback
// @Tags         session
// @Produce      json
// @Param        token  query     string  true  "Bearer token issued by the backend"
// @Success      200    {object}  sessionResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /auth/google/callback [get]
func (h *SessionHandler) GoogleCallback(c echo.Context) error {
	session, err := h.sessions.GoogleLogin(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return err
	}
	metrics.SessionEventsTotal.WithLabelValues("google_login").Inc()
	return c.JSON(http.StatusOK, newSessionResponse(session))
}

// Logout drops the session. It never fails.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context())
	metrics.SessionEventsTotal.WithLabelValues("logout").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Refresh re-syncs the profile and wallet from the backend.
//
// @Summary      Refresh session
// @Tags         session
// @Produce      json
// @Security     DaemonKey
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	session, err := h.sessions.Refresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(session))
}

// UpdateProfile saves the editable profile fields.
//
// @Summary      Update profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      service.ProfileInput  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/profile [patch]
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	var req service.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.sessions.UpdateProfile(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword forwards a password change.
//
// @Summary      Change password
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      service.ChangePasswordInput  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/password [put]
func (h *SessionHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.sessions.ChangePassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// UploadAvatar replaces the profile picture with the multipart "file" part.
//
// @Summary      Upload profile picture
// @Tags         session
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "Image, at most 5MB"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/avatar [post]
func (h *SessionHandler) UploadAvatar(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return domain.NewValidationError("file", "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	user, err := h.sessions.UploadAvatar(c.Request().Context(), service.AvatarInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
