package auth

import (
	"context"
	"time"
)

// RoleAdmin is the only role the system issues. All pipeline operations
// are privileged; there is no end-user token surface.
const RoleAdmin = "admin"

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the given subject
	// and role. Returns the token string or an error if signing fails.
	GenerateToken(ctx context.Context, subject, role string) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// Role is the authorization level the token grants.
	Role string `json:"role,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// IsAdmin reports whether the claims grant the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
