package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recaplab/recap-api/internal/store"
	"github.com/recaplab/recap-api/internal/telemetry"
)

// Janitor removes batch job records older than the retention window.
// Summary documents are never touched; only the orchestration records age
// out.
type Janitor struct {
	jobs      store.BatchJobStore
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewJanitor creates a Janitor keeping jobs for the given retention window.
func NewJanitor(jobs store.BatchJobStore, retention time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		jobs:      jobs,
		retention: retention,
		logger:    logger.With(slog.String("component", "job_janitor")),
		now:       time.Now,
	}
}

// Sweep deletes job records whose reference time (completedAt, falling back
// to submittedAt) predates the retention cutoff. Individual delete failures
// are logged and skipped; the record is picked up again on the next sweep.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.retention)

	old, err := j.jobs.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing jobs older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	deleted := 0
	for _, job := range old {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		if err := j.jobs.Delete(ctx, job.ID); err != nil {
			j.logger.WarnContext(ctx, "old batch job not deleted",
				slog.String("batch_id", job.ID),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		telemetry.JobsSwept.Add(float64(deleted))
		j.logger.InfoContext(ctx, "retention sweep finished",
			slog.Int("deleted", deleted),
			slog.Time("cutoff", cutoff))
	}
	return deleted, nil
}
