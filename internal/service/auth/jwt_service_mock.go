package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MockJWTService is a mock implementation of the JWTService interface for
// testing. This is the single canonical mock to be used in all tests.
type MockJWTService struct {
	// Function fields for custom behaviors
	GenerateTokenFunc func(ctx context.Context, subject, role string) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)

	// Fixed fields for simple cases
	Token           string  // Default token to return
	TokenError      error   // Default error for token generation
	ValidationError error   // Default error for token validation
	Claims          *Claims // Default claims to return
}

// NewMockJWTService creates a new mock JWT service with default values.
// By default, it returns admin claims that will pass role checks.
func NewMockJWTService() *MockJWTService {
	now := time.Now()

	return &MockJWTService{
		Token: "mock-jwt-token",
		Claims: &Claims{
			Role:      RoleAdmin,
			Subject:   "admin@example.com",
			IssuedAt:  now,
			ExpiresAt: now.Add(1 * time.Hour),
			ID:        uuid.New().String(),
		},
	}
}

// GenerateToken implements the JWTService.GenerateToken method.
func (m *MockJWTService) GenerateToken(ctx context.Context, subject, role string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, subject, role)
	}
	return m.Token, m.TokenError
}

// ValidateToken implements the JWTService.ValidateToken method.
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}
	if m.ValidationError != nil {
		return nil, m.ValidationError
	}
	return m.Claims, nil
}

// Ensure MockJWTService implements JWTService
var _ JWTService = (*MockJWTService)(nil)
