package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/recaplab/recap-api/internal/domain"
)

// SummaryStore persists the per-user-per-week aggregate result documents.
type SummaryStore interface {
	// Upsert writes the summary document keyed by (user, year, week),
	// overwriting any existing document for the same key. Re-consuming a
	// batch must land on the same end state, so this is never an insert
	// that can conflict.
	Upsert(ctx context.Context, summary *domain.WeeklySummary) error

	// GetByKey retrieves the summary document for (user, year, week).
	// Returns ErrSummaryNotFound if none exists.
	GetByKey(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklySummary, error)
}
