package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/recaplab/recap-api/internal/config"
	"github.com/recaplab/recap-api/internal/service/auth"
)

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery staple"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.AuthConfig{
		AdminEmail:        "ops@example.com",
		AdminPasswordHash: string(hash),
	}
	jwtService := auth.NewMockJWTService()
	jwtService.Token = "signed-admin-token"

	logger := testLogger()
	adminService := auth.NewAdminService(cfg, jwtService, logger)
	return NewAuthHandler(adminService, logger)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	handler := newTestAuthHandler(t)

	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStatus int
		wantToken  bool
	}{
		{
			name: "valid credentials",
			payload: map[string]interface{}{
				"email":    "ops@example.com",
				"password": "correct horse battery staple",
			},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name: "wrong password",
			payload: map[string]interface{}{
				"email":    "ops@example.com",
				"password": "not the password",
			},
			wantStatus: http.StatusUnauthorized,
			wantToken:  false,
		},
		{
			name: "wrong email",
			payload: map[string]interface{}{
				"email":    "intruder@example.com",
				"password": "correct horse battery staple",
			},
			wantStatus: http.StatusUnauthorized,
			wantToken:  false,
		},
		{
			name: "invalid email format",
			payload: map[string]interface{}{
				"email":    "not-an-email",
				"password": "correct horse battery staple",
			},
			wantStatus: http.StatusBadRequest,
			wantToken:  false,
		},
		{
			name: "missing password",
			payload: map[string]interface{}{
				"email": "ops@example.com",
			},
			wantStatus: http.StatusBadRequest,
			wantToken:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			handler.Login(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantToken {
				var resp AuthResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "signed-admin-token", resp.AccessToken)
			}
		})
	}
}

func TestLoginMalformedBody(t *testing.T) {
	t.Parallel()

	handler := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.Login(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
