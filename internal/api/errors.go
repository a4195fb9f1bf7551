package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/recaplab/recap-api/internal/api/shared"
	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/service/auth"
	"github.com/recaplab/recap-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, auth.ErrInsufficientRole):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, batch.ErrBatchNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrOpenBatchJobExists),
		errors.Is(err, store.ErrStaleTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidWeek),
		errors.Is(err, domain.ErrMalformedCustomID),
		errors.Is(err, domain.ErrWeekOutOfRange):
		return http.StatusBadRequest

	// Upstream provider failures
	case errors.Is(err, batch.ErrSubmitRejected),
		errors.Is(err, batch.ErrOutputUnavailable),
		errors.Is(err, batch.ErrMalformedOutput):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, auth.ErrInsufficientRole):
		return "Admin role required"

	case errors.Is(err, store.ErrBatchJobNotFound),
		errors.Is(err, batch.ErrBatchNotFound):
		return "Batch job not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrSummaryNotFound):
		return "Summary not found"

	case errors.Is(err, store.ErrOpenBatchJobExists):
		return "An open batch job already exists for this week"

	case errors.Is(err, store.ErrStaleTransition):
		return "Batch job already in a terminal state"

	case errors.Is(err, domain.ErrInvalidWeek),
		errors.Is(err, domain.ErrWeekOutOfRange):
		return "Week must be between 1 and 53"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrMalformedCustomID):
		return "Invalid request data"

	case errors.Is(err, batch.ErrSubmitRejected):
		return "Batch provider rejected the submission"

	case errors.Is(err, batch.ErrOutputUnavailable),
		errors.Is(err, batch.ErrMalformedOutput):
		return "Batch results unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes a sanitized error response for err, logging the
// full detail server-side. An empty userMessage falls back to the safe
// message for the error type.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation
		// for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}
