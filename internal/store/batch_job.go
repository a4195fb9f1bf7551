package store

import (
	"context"
	"time"

	"github.com/recaplab/recap-api/internal/domain"
)

// BatchJobStore is the single source of truth for orchestration state.
// Status writes are last-write-wins on the record, but implementations
// refuse transitions that would move a job backwards through its table
// (returning ErrStaleTransition), which is the monotonicity safety net the
// poller relies on when a platform cannot guarantee single-instance runs.
type BatchJobStore interface {
	// Create persists a freshly submitted job.
	// Returns ErrDuplicate if a job with the same provider batch ID exists.
	Create(ctx context.Context, job *domain.BatchJob) error

	// GetByID retrieves a job by its provider-assigned batch ID.
	// Returns ErrBatchJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id string) (*domain.BatchJob, error)

	// FindOpen returns the non-terminal job covering (jobType, week, year),
	// or ErrBatchJobNotFound when no open job exists. Used as the
	// submitter's duplicate-submission guard.
	FindOpen(ctx context.Context, jobType domain.BatchJobType, week, year int) (*domain.BatchJob, error)

	// ListByStatus retrieves all jobs whose status is in the given set,
	// oldest first.
	ListByStatus(ctx context.Context, statuses ...domain.BatchJobStatus) ([]*domain.BatchJob, error)

	// ListRecent retrieves the most recently submitted jobs, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.BatchJob, error)

	// UpdateStatus advances a job's status and, when non-empty, records the
	// provider's output/error file IDs. Callers pass the full intended
	// values; the store does not merge fields.
	UpdateStatus(ctx context.Context, id string, status domain.BatchJobStatus, outputFileID, errorFileID string) error

	// Complete finalizes a consumed job: terminal completed status, item
	// counters, per-item errors and the completion timestamp.
	Complete(ctx context.Context, id string, successCount, errorCount int, itemErrors []domain.ItemError) error

	// Fail marks a job terminally failed with the provider-reported reason.
	Fail(ctx context.Context, id string, status domain.BatchJobStatus, reason string) error

	// ListOlderThan retrieves terminal jobs whose reference time
	// (completedAt, falling back to submittedAt) is before cutoff.
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.BatchJob, error)

	// Delete removes a job record.
	// Returns ErrBatchJobNotFound if the job does not exist.
	Delete(ctx context.Context, id string) error
}
