package domain

import (
	"errors"
	"time"
)

// BatchJobStatus represents the orchestration state of a batch job.
type BatchJobStatus string

// Possible batch job status values. A job moves forward only:
// submitted -> validating/in_progress -> processing -> completed,
// or to the terminal failed/cancelled states. It never regresses.
const (
	BatchJobStatusSubmitted  BatchJobStatus = "submitted"
	BatchJobStatusValidating BatchJobStatus = "validating"
	BatchJobStatusInProgress BatchJobStatus = "in_progress"
	BatchJobStatusProcessing BatchJobStatus = "processing"
	BatchJobStatusCompleted  BatchJobStatus = "completed"
	BatchJobStatusFailed     BatchJobStatus = "failed"
	BatchJobStatusCancelled  BatchJobStatus = "cancelled"
)

// BatchJobType identifies the workload a batch job carries.
type BatchJobType string

const (
	// BatchJobTypeWeeklySummary is the weekly per-user activity summary run.
	BatchJobTypeWeeklySummary BatchJobType = "weekly-summary"
)

// Common validation errors for BatchJob
var (
	ErrEmptyBatchJobID    = errors.New("batch job ID cannot be empty")
	ErrInvalidBatchStatus = errors.New("invalid batch job status")
	ErrInvalidBatchType   = errors.New("invalid batch job type")
	ErrInvalidWeek        = errors.New("week must be between 1 and 53")
)

// ItemError records the failure of a single request within a batch,
// keyed by the customId the request was submitted under.
type ItemError struct {
	CustomID string `json:"custom_id"`
	Error    string `json:"error"`
}

// BatchJob is the durable record tracking one submission-to-consumption
// cycle against the external batch provider. The ID is the opaque
// provider-assigned batch identifier.
type BatchJob struct {
	ID            string         `json:"id"`
	Type          BatchJobType   `json:"type"`
	Week          int            `json:"week"`
	Year          int            `json:"year"`
	Status        BatchJobStatus `json:"status"`
	TotalRequests int            `json:"total_requests"`
	OutputFileID  string         `json:"output_file_id,omitempty"`
	ErrorFileID   string         `json:"error_file_id,omitempty"`
	SuccessCount  int            `json:"success_count"`
	ErrorCount    int            `json:"error_count"`
	Errors        []ItemError    `json:"errors,omitempty"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// NewBatchJob creates a BatchJob in the submitted state for a freshly
// accepted provider batch. Returns an error if validation fails.
func NewBatchJob(providerBatchID string, jobType BatchJobType, week, year, totalRequests int) (*BatchJob, error) {
	job := &BatchJob{
		ID:            providerBatchID,
		Type:          jobType,
		Week:          week,
		Year:          year,
		Status:        BatchJobStatusSubmitted,
		TotalRequests: totalRequests,
		SubmittedAt:   time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the BatchJob has valid data.
func (j *BatchJob) Validate() error {
	if j.ID == "" {
		return ErrEmptyBatchJobID
	}

	if j.Type != BatchJobTypeWeeklySummary {
		return ErrInvalidBatchType
	}

	if j.Week < 1 || j.Week > 53 {
		return ErrInvalidWeek
	}

	if !isValidBatchJobStatus(j.Status) {
		return ErrInvalidBatchStatus
	}

	return nil
}

// IsTerminal reports whether the job has reached a state from which no
// further transitions are expected.
func (j *BatchJob) IsTerminal() bool {
	return IsTerminalStatus(j.Status)
}

// ReferenceTime returns the timestamp retention decisions are made against:
// CompletedAt when set, SubmittedAt otherwise. Permanently failed jobs that
// never completed still age out this way.
func (j *BatchJob) ReferenceTime() time.Time {
	if j.CompletedAt != nil {
		return *j.CompletedAt
	}
	return j.SubmittedAt
}

// IsTerminalStatus reports whether status is completed, failed or cancelled.
func IsTerminalStatus(status BatchJobStatus) bool {
	switch status {
	case BatchJobStatusCompleted, BatchJobStatusFailed, BatchJobStatusCancelled:
		return true
	default:
		return false
	}
}

// statusRank orders statuses along the forward-only transition table.
// Terminal states share the highest rank so a terminal job never moves.
func statusRank(status BatchJobStatus) int {
	switch status {
	case BatchJobStatusSubmitted:
		return 0
	case BatchJobStatusValidating, BatchJobStatusInProgress:
		return 1
	case BatchJobStatusProcessing:
		return 2
	case BatchJobStatusCompleted, BatchJobStatusFailed, BatchJobStatusCancelled:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from the job's current status to
// next respects the forward-only transition table. Staying on the same
// non-terminal status is allowed (a re-poll that observed no change).
func (j *BatchJob) CanTransitionTo(next BatchJobStatus) bool {
	if !isValidBatchJobStatus(next) {
		return false
	}
	if j.IsTerminal() {
		return false
	}
	if j.Status == next {
		return true
	}
	return statusRank(next) >= statusRank(j.Status)
}

func isValidBatchJobStatus(status BatchJobStatus) bool {
	return statusRank(status) >= 0
}
