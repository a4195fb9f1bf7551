package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/events"
	"github.com/recaplab/recap-api/internal/store"
	"github.com/recaplab/recap-api/internal/telemetry"
)

// openStatuses are the states a poll cycle picks up. Jobs stuck in
// processing (a crashed earlier consume) are retried here too.
var openStatuses = []domain.BatchJobStatus{
	domain.BatchJobStatusSubmitted,
	domain.BatchJobStatusValidating,
	domain.BatchJobStatusInProgress,
	domain.BatchJobStatusProcessing,
}

// Poller drives open batch jobs through their lifecycle: it queries the
// provider for each open job, advances the stored status, and hands
// finished batches to the consumer.
type Poller struct {
	jobs     store.BatchJobStore
	provider batch.Provider
	consumer *Consumer
	emitter  events.ReportEmitter
	logger   *slog.Logger
}

// NewPoller creates a Poller with its dependencies.
func NewPoller(
	jobs store.BatchJobStore,
	provider batch.Provider,
	consumer *Consumer,
	emitter events.ReportEmitter,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		jobs:     jobs,
		provider: provider,
		consumer: consumer,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "batch_poller")),
	}
}

// PollCycle processes every open job once. A failure on one job is logged
// and counted but never stops the cycle; the job stays in its current state
// and is retried on the next cycle. The returned error covers only the
// initial job listing.
func (p *Poller) PollCycle(ctx context.Context) error {
	telemetry.PollCycles.Inc()

	jobs, err := p.jobs.ListByStatus(ctx, openStatuses...)
	if err != nil {
		return fmt.Errorf("listing open batch jobs: %w", err)
	}

	telemetry.OpenJobsGauge.Set(float64(len(jobs)))
	if len(jobs) == 0 {
		p.logger.DebugContext(ctx, "no open batch jobs")
		return nil
	}

	p.logger.InfoContext(ctx, "poll cycle started", slog.Int("open_jobs", len(jobs)))

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.pollJobSafe(ctx, job); err != nil {
			telemetry.PollErrors.Inc()
			p.logger.ErrorContext(ctx, "polling batch job failed",
				slog.String("batch_id", job.ID),
				slog.String("status", string(job.Status)),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// pollJobSafe converts a panic in one job's poll or consume path into an
// ordinary per-job error, so a single poisoned job cannot take down the
// rest of the cycle or the scheduler goroutine above it.
func (p *Poller) pollJobSafe(ctx context.Context, job *domain.BatchJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while polling job: %v", r)
		}
	}()
	return p.pollJob(ctx, job)
}

// pollJob advances a single job based on the provider's current view.
func (p *Poller) pollJob(ctx context.Context, job *domain.BatchJob) error {
	snapshot, err := p.provider.CheckStatus(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("checking provider status: %w", err)
	}

	switch snapshot.State {
	case batch.StateCompleted:
		return p.handleCompleted(ctx, job, snapshot)

	case batch.StateFailed, batch.StateCancelled:
		return p.handleFailed(ctx, job, snapshot)

	default:
		next := statusForState(snapshot.State)
		if next == job.Status {
			return nil
		}
		if err := p.jobs.UpdateStatus(ctx, job.ID, next, "", ""); err != nil {
			return fmt.Errorf("advancing status to %s: %w", next, err)
		}
		p.logger.InfoContext(ctx, "batch job advanced",
			slog.String("batch_id", job.ID),
			slog.String("from", string(job.Status)),
			slog.String("to", string(next)))
		return nil
	}
}

// handleCompleted records the output artifact, moves the job to processing
// and consumes the results synchronously within the same cycle.
func (p *Poller) handleCompleted(ctx context.Context, job *domain.BatchJob, snapshot *batch.StatusSnapshot) error {
	if snapshot.OutputFileID == "" && snapshot.ErrorFileID == "" {
		// Terminal at the provider with no artifact to consume. Nothing
		// will ever arrive, so the job fails rather than polling forever.
		return p.failJob(ctx, job, domain.BatchJobStatusFailed, "provider completed batch without output artifact")
	}

	if err := p.jobs.UpdateStatus(ctx, job.ID, domain.BatchJobStatusProcessing,
		snapshot.OutputFileID, snapshot.ErrorFileID); err != nil {
		return fmt.Errorf("recording output artifact: %w", err)
	}

	if _, err := p.consumer.Consume(ctx, job.ID); err != nil {
		// The job stays in processing with its file IDs recorded; the next
		// cycle (or a manual trigger) retries consumption.
		return fmt.Errorf("consuming results: %w", err)
	}
	return nil
}

// handleFailed marks the job terminally failed or cancelled and reports it.
func (p *Poller) handleFailed(ctx context.Context, job *domain.BatchJob, snapshot *batch.StatusSnapshot) error {
	status := domain.BatchJobStatusFailed
	outcome := events.OutcomeFailed
	if snapshot.State == batch.StateCancelled {
		status = domain.BatchJobStatusCancelled
		outcome = events.OutcomeCancelled
	}

	reason := fmt.Sprintf("provider reported batch %s", snapshot.State)
	if err := p.failJob(ctx, job, status, reason); err != nil {
		return err
	}

	job.Status = status
	if err := p.emitter.EmitReport(ctx, events.NewBatchReport(job, outcome, reason)); err != nil {
		p.logger.WarnContext(ctx, "batch report not delivered",
			slog.String("batch_id", job.ID),
			slog.String("error", err.Error()))
	}
	return nil
}

func (p *Poller) failJob(ctx context.Context, job *domain.BatchJob, status domain.BatchJobStatus, reason string) error {
	if err := p.jobs.Fail(ctx, job.ID, status, reason); err != nil {
		return fmt.Errorf("marking job %s: %w", status, err)
	}
	telemetry.JobsFailed.Inc()
	p.logger.WarnContext(ctx, "batch job terminal without results",
		slog.String("batch_id", job.ID),
		slog.String("status", string(status)),
		slog.String("reason", reason))
	return nil
}

// statusForState maps a provider state to the stored job status for the
// non-terminal cases.
func statusForState(state batch.State) domain.BatchJobStatus {
	switch state {
	case batch.StateValidating:
		return domain.BatchJobStatusValidating
	default:
		return domain.BatchJobStatusInProgress
	}
}
