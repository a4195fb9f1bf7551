package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recaplab/recap-api/internal/domain"
)

func TestNewBatchReport(t *testing.T) {
	job := &domain.BatchJob{
		ID:            "batches/abc123",
		Type:          domain.BatchJobTypeWeeklySummary,
		Week:          10,
		Year:          2024,
		TotalRequests: 12,
		SuccessCount:  11,
		ErrorCount:    1,
	}

	report := NewBatchReport(job, OutcomeCompleted, "")

	require.NotNil(t, report)
	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, job.ID, report.BatchID)
	assert.Equal(t, job.Type, report.JobType)
	assert.Equal(t, 10, report.Week)
	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 12, report.TotalRequests)
	assert.Equal(t, 11, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Empty(t, report.Reason)
	assert.WithinDuration(t, time.Now(), report.CreatedAt, 2*time.Second)
}

func TestNewBatchReportFailedOutcome(t *testing.T) {
	job := &domain.BatchJob{
		ID:   "batches/def456",
		Type: domain.BatchJobTypeWeeklySummary,
		Week: 9,
		Year: 2024,
	}

	report := NewBatchReport(job, OutcomeFailed, "provider expired the batch")

	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, "provider expired the batch", report.Reason)
}

// MockReportHandler implements the ReportHandler interface for testing
type MockReportHandler struct {
	// The last report received by this handler
	LastReport *BatchReport
	// Error to return from HandleReport
	HandlerError error
	// Count of reports handled
	HandledCount int
}

// HandleReport implements the ReportHandler interface
func (h *MockReportHandler) HandleReport(ctx context.Context, report *BatchReport) error {
	h.LastReport = report
	h.HandledCount++
	return h.HandlerError
}

func TestReportHandler(t *testing.T) {
	handler := &MockReportHandler{}

	job := &domain.BatchJob{ID: "batches/abc", Type: domain.BatchJobTypeWeeklySummary, Week: 1, Year: 2024}
	report := NewBatchReport(job, OutcomeCompleted, "")

	err := handler.HandleReport(context.Background(), report)
	assert.NoError(t, err)
	assert.Equal(t, 1, handler.HandledCount)
	assert.Equal(t, report, handler.LastReport)
}
