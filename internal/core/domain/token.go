package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the client can read from a bearer token without the
// backend's signing key.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      Role
	ExpiresAt *time.Time
}

// Expired reports whether the token carries an exp claim in the past.
func (c TokenClaims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// ParseTokenClaims decodes the claims of a JWT bearer token without verifying
// its signature. Opaque (non-JWT) tokens return ok=false.
func ParseTokenClaims(token string) (TokenClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, false
	}

	var out TokenClaims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = ParseRole(role)
	}
	return out, true
}
