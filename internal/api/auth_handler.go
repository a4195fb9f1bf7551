package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/recaplab/recap-api/internal/api/shared"
	"github.com/recaplab/recap-api/internal/service/auth"
)

// AuthHandler handles the admin login endpoint.
type AuthHandler struct {
	adminService *auth.AdminService
	validator    *validator.Validate
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(adminService *auth.AdminService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		adminService: adminService,
		validator:    validator.New(),
		logger:       logger.With(slog.String("component", "auth_handler")),
	}
}

// Login handles the /admin/login endpoint. It verifies the operator
// credentials and returns a signed admin token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	token, err := h.adminService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{AccessToken: token})
}
