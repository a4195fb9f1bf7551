package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the admin login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// TriggerRequest defines the payload for the batch trigger endpoint.
// Omitting week targets the most recently ended week.
type TriggerRequest struct {
	Week int `json:"week" validate:"omitempty,min=1,max=53"`
	Year int `json:"year" validate:"omitempty,min=2000,max=2200"`
}

// TriggerResponse reports the outcome of a submission run.
type TriggerResponse struct {
	BatchID      string      `json:"batch_id,omitempty"`
	Week         int         `json:"week"`
	Year         int         `json:"year"`
	TotalUsers   int         `json:"total_users"`
	Submitted    int         `json:"submitted"`
	SkippedUsers []uuid.UUID `json:"skipped_users"`
}

// BatchJobResponse is the API representation of a batch job record.
type BatchJobResponse struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Week          int                `json:"week"`
	Year          int                `json:"year"`
	Status        string             `json:"status"`
	TotalRequests int                `json:"total_requests"`
	SuccessCount  int                `json:"success_count"`
	ErrorCount    int                `json:"error_count"`
	Errors        []domain.ItemError `json:"errors,omitempty"`
	SubmittedAt   time.Time          `json:"submitted_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}

// NewBatchJobResponse converts a domain batch job into its API shape.
func NewBatchJobResponse(job *domain.BatchJob) BatchJobResponse {
	return BatchJobResponse{
		ID:            job.ID,
		Type:          string(job.Type),
		Week:          job.Week,
		Year:          job.Year,
		Status:        string(job.Status),
		TotalRequests: job.TotalRequests,
		SuccessCount:  job.SuccessCount,
		ErrorCount:    job.ErrorCount,
		Errors:        job.Errors,
		SubmittedAt:   job.SubmittedAt,
		CompletedAt:   job.CompletedAt,
	}
}

// BatchJobListResponse wraps the job listing endpoint's payload.
type BatchJobListResponse struct {
	Jobs []BatchJobResponse `json:"jobs"`
}

// ConsumeResponse reports the outcome of a manual consumption trigger.
type ConsumeResponse struct {
	BatchID      string             `json:"batch_id"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []domain.ItemError `json:"errors,omitempty"`
}
