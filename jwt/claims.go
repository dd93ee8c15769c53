package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims JWT statements; the subject is the customer id
type Claims struct {
	jwt.RegisteredClaims

	Roles    []string `json:"roles,omitempty"`
	TenantID string   `json:"tenant_id,omitempty"`
}

// UserID returns the subject
func (c *Claims) UserID() string {
	return c.Subject
}

// TTL returns remaining valid time
func (c *Claims) TTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}
