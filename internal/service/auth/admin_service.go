package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/recaplab/recap-api/internal/config"
)

// AdminService authenticates the configured operator account and issues
// admin-role tokens for the privileged pipeline endpoints.
type AdminService struct {
	adminEmail   string
	passwordHash string
	verifier     PasswordVerifier
	jwtService   JWTService
	logger       *slog.Logger
}

// NewAdminService creates an AdminService from the auth configuration.
func NewAdminService(cfg config.AuthConfig, jwtService JWTService, logger *slog.Logger) *AdminService {
	return &AdminService{
		adminEmail:   cfg.AdminEmail,
		passwordHash: cfg.AdminPasswordHash,
		verifier:     NewBcryptVerifier(),
		jwtService:   jwtService,
		logger:       logger.With(slog.String("component", "admin_service")),
	}
}

// Login verifies the operator credentials and returns a signed admin token.
// Returns ErrInvalidCredentials on any mismatch; the caller cannot tell a
// wrong email from a wrong password.
func (s *AdminService) Login(ctx context.Context, email, password string) (string, error) {
	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1

	// Always run the bcrypt comparison so response timing does not reveal
	// whether the email matched.
	passwordErr := s.verifier.Compare(s.passwordHash, password)

	if !emailMatch || passwordErr != nil {
		s.logger.WarnContext(ctx, "admin login rejected")
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(ctx, email, RoleAdmin)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "admin login succeeded")
	return token, nil
}
