package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recaplab/recap-api/internal/domain"
)

func seedTerminalJob(t *testing.T, jobs *mockJobStore, id string, completedAt time.Time) {
	t.Helper()
	job, err := domain.NewBatchJob(id, domain.BatchJobTypeWeeklySummary, 10, 2024, 1)
	require.NoError(t, err)
	job.Status = domain.BatchJobStatusCompleted
	job.CompletedAt = &completedAt
	jobs.put(job)
}

func TestJanitorSweepsOldJobs(t *testing.T) {
	t.Parallel()

	jobs := newMockJobStore()
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	seedTerminalJob(t, jobs, "batches/old", now.AddDate(0, 0, -20))
	seedTerminalJob(t, jobs, "batches/fresh", now.AddDate(0, 0, -3))

	// A failed job that never completed ages out on its submission time.
	stale, err := domain.NewBatchJob("batches/stale", domain.BatchJobTypeWeeklySummary, 9, 2024, 1)
	require.NoError(t, err)
	stale.Status = domain.BatchJobStatusFailed
	stale.SubmittedAt = now.AddDate(0, 0, -30)
	jobs.put(stale)

	// Open jobs are never swept regardless of age.
	open, err := domain.NewBatchJob("batches/open", domain.BatchJobTypeWeeklySummary, 8, 2024, 1)
	require.NoError(t, err)
	open.SubmittedAt = now.AddDate(0, 0, -40)
	jobs.put(open)

	janitor := NewJanitor(jobs, 14*24*time.Hour, testLogger())
	janitor.now = func() time.Time { return now }

	deleted, err := janitor.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.Nil(t, jobs.get("batches/old"))
	assert.Nil(t, jobs.get("batches/stale"))
	assert.NotNil(t, jobs.get("batches/fresh"))
	assert.NotNil(t, jobs.get("batches/open"))
}

func TestJanitorIsolatesDeleteFailures(t *testing.T) {
	t.Parallel()

	jobs := newMockJobStore()
	now := time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
	seedTerminalJob(t, jobs, "batches/a", now.AddDate(0, 0, -20))
	seedTerminalJob(t, jobs, "batches/b", now.AddDate(0, 0, -21))

	jobs.failDelete = map[string]error{"batches/a": errors.New("lock timeout")}

	janitor := NewJanitor(jobs, 14*24*time.Hour, testLogger())
	janitor.now = func() time.Time { return now }

	deleted, err := janitor.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.NotNil(t, jobs.get("batches/a"), "failed delete leaves the record for the next sweep")
	assert.Nil(t, jobs.get("batches/b"))
}
