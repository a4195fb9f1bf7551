package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/recaplab/recap-api/internal/domain"
)

// WeeklyDataStore reads the per-user weekly task data the pipeline is built
// on. It is a read-only view over the primary todo store; the pipeline never
// mutates user-facing data through it.
type WeeklyDataStore interface {
	// ListUsers returns every registered user, oldest account first.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// GetWeeklyData returns the user's completed todos within the week's
	// Monday-to-Friday window, the count of still-open todos, and the
	// account creation date. A user with no completed items gets an empty
	// CompletedTodos slice, not an error.
	GetWeeklyData(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklyData, error)
}
