package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fedawallet/wallet-client/internal/core/domain"
)

// APIKey requires "Authorization: Bearer <key>" on every request. An empty key
// disables the check.
func APIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(key)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}
			return next(c)
		}
	}
}

// RequireSession rejects requests while no end-user session is held, or when
// the held token is a JWT whose exp has passed. It injects role and user_id.
func RequireSession(current func() domain.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := current()
			if !session.Authenticated() {
				return domain.ErrNotAuthenticated
			}

			role := domain.RoleUser
			claims, isJWT := domain.ParseTokenClaims(session.Token)
			if isJWT {
				if claims.Expired(time.Now()) {
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired, please log in again")
				}
				if claims.Role != "" {
					role = claims.Role
				}
			}

			userID := claims.Subject
			if session.User != nil {
				role = session.User.Role
				userID = session.User.ID
			}
			c.Set("role", role)
			c.Set("user_id", userID)

			return next(c)
		}
	}
}

// RequireAdmin rejects requests while no admin session is held and injects
// the administrator's role and id.
func RequireAdmin(current func() domain.AdminSnapshot) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := current()
			if !snap.Authenticated() {
				return domain.ErrNotAuthenticated
			}

			role, userID := domain.RoleAdmin, ""
			if snap.Admin != nil {
				role = snap.Admin.Role
				userID = snap.Admin.ID
			}
			c.Set("role", role)
			c.Set("user_id", userID)

			return next(c)
		}
	}
}
