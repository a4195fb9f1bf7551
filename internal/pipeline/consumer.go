package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/events"
	"github.com/recaplab/recap-api/internal/store"
	"github.com/recaplab/recap-api/internal/telemetry"
)

// ConsumeReport summarizes one consumption pass over a batch's results.
type ConsumeReport struct {
	BatchID      string
	SuccessCount int
	ErrorCount   int
	Errors       []domain.ItemError
}

// Consumer turns a finished batch's output artifact into aggregate weekly
// summary documents. Consumption is idempotent: every write is an upsert
// keyed by (user, year, week), so running it twice for the same batch
// lands on the same end state.
type Consumer struct {
	jobs      store.BatchJobStore
	weekly    store.WeeklyDataStore
	summaries store.SummaryStore
	provider  batch.Provider
	emitter   events.ReportEmitter
	logger    *slog.Logger
	now       func() time.Time
}

// NewConsumer creates a Consumer with its dependencies.
func NewConsumer(
	jobs store.BatchJobStore,
	weekly store.WeeklyDataStore,
	summaries store.SummaryStore,
	provider batch.Provider,
	emitter events.ReportEmitter,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		jobs:      jobs,
		weekly:    weekly,
		summaries: summaries,
		provider:  provider,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "batch_consumer")),
		now:       time.Now,
	}
}

// Consume downloads the job's output artifact and processes every item.
// Item-level failures (provider generation errors, malformed customIds,
// vanished users, write errors) are recorded on the job and never abort
// the pass; the job completes with partial results. Only infrastructure
// failures that prevent the pass itself (job lookup, artifact download)
// return an error and leave the job in processing for a later retry.
func (c *Consumer) Consume(ctx context.Context, batchID string) (*ConsumeReport, error) {
	log := c.logger.With(slog.String("batch_id", batchID))

	job, err := c.jobs.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading batch job %s: %w", batchID, err)
	}

	if job.OutputFileID == "" {
		return nil, fmt.Errorf("%w: job %s has no output file recorded", batch.ErrOutputUnavailable, batchID)
	}

	results, err := c.provider.DownloadResults(ctx, job.OutputFileID)
	if err != nil {
		return nil, fmt.Errorf("downloading results for batch %s: %w", batchID, err)
	}

	report := &ConsumeReport{BatchID: batchID}
	for _, item := range results {
		if itemErr := c.consumeItem(ctx, job, item); itemErr != nil {
			report.ErrorCount++
			report.Errors = append(report.Errors, domain.ItemError{
				CustomID: item.CustomID,
				Error:    itemErr.Error(),
			})
			log.WarnContext(ctx, "batch item not consumed",
				slog.String("custom_id", item.CustomID),
				slog.String("error", itemErr.Error()))
			continue
		}
		report.SuccessCount++
	}

	// The artifact should carry one line per submitted request. A shortfall
	// counts against the job so success_count + error_count always accounts
	// for total_requests; the provider never tells us which customIds the
	// missing lines belonged to.
	if missing := job.TotalRequests - (report.SuccessCount + report.ErrorCount); missing > 0 {
		report.ErrorCount += missing
		report.Errors = append(report.Errors, domain.ItemError{
			Error: fmt.Sprintf("%d of %d requests missing from output artifact", missing, job.TotalRequests),
		})
		log.WarnContext(ctx, "output artifact short of submitted requests",
			slog.Int("missing", missing),
			slog.Int("total_requests", job.TotalRequests))
	}

	telemetry.ItemsSucceeded.Add(float64(report.SuccessCount))
	telemetry.ItemsFailed.Add(float64(report.ErrorCount))

	// The job completes regardless of item errors; the counts and error
	// list carry the partial-failure detail. A stale-transition refusal
	// means a previous pass already completed the job, which is exactly
	// the idempotent re-consumption case.
	err = c.jobs.Complete(ctx, batchID, report.SuccessCount, report.ErrorCount, report.Errors)
	switch {
	case errors.Is(err, store.ErrStaleTransition):
		log.InfoContext(ctx, "batch already completed, documents re-upserted",
			slog.Int("success_count", report.SuccessCount),
			slog.Int("error_count", report.ErrorCount))
		return report, nil
	case err != nil:
		return nil, fmt.Errorf("completing batch job %s: %w", batchID, err)
	}

	telemetry.JobsCompleted.Inc()
	log.InfoContext(ctx, "batch consumed",
		slog.Int("success_count", report.SuccessCount),
		slog.Int("error_count", report.ErrorCount))

	job.Status = domain.BatchJobStatusCompleted
	job.SuccessCount = report.SuccessCount
	job.ErrorCount = report.ErrorCount
	if err := c.emitter.EmitReport(ctx, events.NewBatchReport(job, events.OutcomeCompleted, "")); err != nil {
		// Reporting is best-effort; the job record already holds the outcome.
		log.WarnContext(ctx, "batch report not delivered", slog.String("error", err.Error()))
	}

	return report, nil
}

// consumeItem processes one result line into an aggregate document.
func (c *Consumer) consumeItem(ctx context.Context, job *domain.BatchJob, item batch.ItemResult) error {
	if item.Failed() {
		return fmt.Errorf("provider error: %s", item.Err)
	}

	userID, year, week, err := domain.ParseCustomID(item.CustomID)
	if err != nil {
		return err
	}
	if year != job.Year || week != job.Week {
		return fmt.Errorf("customId week %d/%d does not match job week %d/%d",
			week, year, job.Week, job.Year)
	}
	if item.Summary == "" {
		return errors.New("empty summary text in result")
	}

	// Refetch the weekly data at consumption time. The snapshot in the
	// document reflects the todos as they stand now, not as they stood at
	// submission; a user who deleted a todo in between gets the smaller
	// snapshot.
	data, err := c.weekly.GetWeeklyData(ctx, userID, year, week)
	if err != nil {
		return fmt.Errorf("loading weekly data: %w", err)
	}

	doc := &domain.WeeklySummary{
		UserID:          userID,
		Year:            year,
		Week:            week,
		Month:           domain.MonthOf(year, week),
		Summary:         item.Summary,
		CompletedTodos:  data.CompletedTodos,
		IncompleteCount: data.IncompleteCount,
		GeneratedAt:     c.now().UTC(),
	}

	if err := c.summaries.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("upserting summary document: %w", err)
	}
	return nil
}
