package auth

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the part of the backend's access token the client can read.
type AccessTokenClaims struct {
	UserID string         `json:"id,omitempty"`
	Role   enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id, falling back to the standard subject claim.
func (c *AccessTokenClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// ExpiresIn reports the time left before expiry; ok is false when the token carries no exp claim.
func (c *AccessTokenClaims) ExpiresIn(now time.Time) (left time.Duration, ok bool) {
	if c == nil || c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Sub(now), true
}

// Expired reports whether exp is in the past.
func (c *AccessTokenClaims) Expired(now time.Time) bool {
	left, ok := c.ExpiresIn(now)
	return ok && left <= 0
}
