package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/domain"
)

// Report outcome kinds.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// BatchReport describes the final outcome of a batch job. It is emitted once
// per job when the pipeline observes a terminal state, and carries enough
// detail for a sink to notify an operator without further store lookups.
type BatchReport struct {
	// ID is a unique identifier for this report event
	ID uuid.UUID `json:"id"`

	// BatchID is the provider-assigned identifier of the batch job
	BatchID string `json:"batchId"`

	// JobType is the kind of batch work the job performed
	JobType domain.BatchJobType `json:"jobType"`

	// Week and Year identify the reporting window the job covered
	Week int `json:"week"`
	Year int `json:"year"`

	// Outcome is one of the Outcome* constants
	Outcome string `json:"outcome"`

	// TotalRequests is the number of items submitted in the batch
	TotalRequests int `json:"totalRequests"`

	// SuccessCount and ErrorCount partition the processed items
	SuccessCount int `json:"successCount"`
	ErrorCount   int `json:"errorCount"`

	// Reason carries a human-readable explanation for failed outcomes
	Reason string `json:"reason,omitempty"`

	// CreatedAt is the timestamp when the report was created
	CreatedAt time.Time `json:"createdAt"`
}

// NewBatchReport builds a report for the given job with a fresh event ID.
func NewBatchReport(job *domain.BatchJob, outcome string, reason string) *BatchReport {
	return &BatchReport{
		ID:            uuid.New(),
		BatchID:       job.ID,
		JobType:       job.Type,
		Week:          job.Week,
		Year:          job.Year,
		Outcome:       outcome,
		TotalRequests: job.TotalRequests,
		SuccessCount:  job.SuccessCount,
		ErrorCount:    job.ErrorCount,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}
}

// ReportHandler defines an interface for components that consume batch
// outcome reports. Handlers must tolerate duplicate delivery.
type ReportHandler interface {
	// HandleReport processes the given report within the provided context.
	// Returns an error if the report cannot be handled successfully.
	HandleReport(ctx context.Context, report *BatchReport) error
}

// ReportEmitter defines an interface for components that publish batch
// outcome reports. This allows the pipeline to report results without
// direct knowledge of delivery channels.
type ReportEmitter interface {
	// EmitReport publishes the given report to all registered handlers.
	// Returns an error if the report cannot be emitted.
	EmitReport(ctx context.Context, report *BatchReport) error
}
