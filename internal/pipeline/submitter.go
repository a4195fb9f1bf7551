package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/store"
	"github.com/recaplab/recap-api/internal/telemetry"
)

// SubmitResult reports what a submission run did. Job is nil when every
// user was skipped and no batch was sent to the provider.
type SubmitResult struct {
	Job          *domain.BatchJob
	Week         int
	Year         int
	TotalUsers   int
	Submitted    int
	SkippedUsers []uuid.UUID
}

// Submitter assembles and submits the weekly summary batch. It never
// retries on its own: a failed submission leaves no job record, and the
// retry is simply calling Submit again.
type Submitter struct {
	weekly    store.WeeklyDataStore
	summaries store.SummaryStore
	jobs      store.BatchJobStore
	provider  batch.Provider
	logger    *slog.Logger
	now       func() time.Time
}

// NewSubmitter creates a Submitter with its dependencies.
func NewSubmitter(
	weekly store.WeeklyDataStore,
	summaries store.SummaryStore,
	jobs store.BatchJobStore,
	provider batch.Provider,
	logger *slog.Logger,
) *Submitter {
	return &Submitter{
		weekly:    weekly,
		summaries: summaries,
		jobs:      jobs,
		provider:  provider,
		logger:    logger.With(slog.String("component", "batch_submitter")),
		now:       time.Now,
	}
}

// Submit builds one generation request per eligible user for the given week
// and submits them as a single provider batch. Pass week 0 to target the
// most recently ended week.
//
// Users with no completed todos in the window are skipped and reported in
// the result, never sent to the provider. If a non-terminal job already
// covers the period, Submit refuses with store.ErrOpenBatchJobExists.
func (s *Submitter) Submit(ctx context.Context, week, year int) (*SubmitResult, error) {
	log := s.logger
	if week == 0 {
		week, year = domain.PreviousWeekOf(s.now())
	}
	if week < 1 || week > 53 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWeek, week)
	}

	log = log.With(slog.Int("week", week), slog.Int("year", year))

	// Duplicate-submission guard. The open job wins; its batch will be
	// consumed (or fail) before this period can be submitted again.
	open, err := s.jobs.FindOpen(ctx, domain.BatchJobTypeWeeklySummary, week, year)
	if err == nil {
		log.WarnContext(ctx, "submission refused, open job exists",
			slog.String("batch_id", open.ID),
			slog.String("status", string(open.Status)))
		return nil, fmt.Errorf("%w: batch %s is %s", store.ErrOpenBatchJobExists, open.ID, open.Status)
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("checking for open batch job: %w", err)
	}

	users, err := s.weekly.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	result := &SubmitResult{Week: week, Year: year, TotalUsers: len(users)}
	requests := make([]batch.Request, 0, len(users))

	for _, user := range users {
		data, err := s.weekly.GetWeeklyData(ctx, user.ID, year, week)
		if err != nil {
			return nil, fmt.Errorf("loading weekly data for user %s: %w", user.ID, err)
		}

		if len(data.CompletedTodos) == 0 {
			result.SkippedUsers = append(result.SkippedUsers, user.ID)
			continue
		}

		prior, err := s.priorSummary(ctx, user.ID, year, week)
		if err != nil {
			return nil, err
		}

		requests = append(requests, batch.Request{
			CustomID: domain.FormatCustomID(user.ID, year, week),
			Prompt: BuildPrompt(PromptInput{
				Data:         data,
				PriorSummary: prior,
				Year:         year,
				Week:         week,
			}),
		})
	}

	telemetry.UsersSkipped.Add(float64(len(result.SkippedUsers)))

	if len(requests) == 0 {
		log.InfoContext(ctx, "no eligible users, batch not submitted",
			slog.Int("total_users", result.TotalUsers),
			slog.Int("skipped_users", len(result.SkippedUsers)))
		return result, nil
	}

	batchID, err := s.provider.SubmitBatch(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("submitting batch of %d requests: %w", len(requests), err)
	}

	job, err := domain.NewBatchJob(batchID, domain.BatchJobTypeWeeklySummary, week, year, len(requests))
	if err != nil {
		return nil, fmt.Errorf("building batch job record: %w", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		// The provider accepted the batch but we could not record it. The
		// batch keeps running server-side; surface both facts to the caller.
		log.ErrorContext(ctx, "batch accepted by provider but job record not persisted",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("persisting job record for accepted batch %s: %w", batchID, err)
	}

	telemetry.BatchesSubmitted.Inc()
	log.InfoContext(ctx, "batch submitted",
		slog.String("batch_id", batchID),
		slog.Int("total_users", result.TotalUsers),
		slog.Int("submitted_requests", len(requests)),
		slog.Int("skipped_users", len(result.SkippedUsers)))

	result.Job = job
	result.Submitted = len(requests)
	return result, nil
}

// priorSummary fetches the previous week's summary text for continuity.
// A missing document is normal (new user, skipped week) and yields "".
func (s *Submitter) priorSummary(ctx context.Context, userID uuid.UUID, year, week int) (string, error) {
	prevYear, prevWeek := domain.PreviousWeek(year, week)
	prev, err := s.summaries.GetByKey(ctx, userID, prevYear, prevWeek)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("loading prior summary for user %s: %w", userID, err)
	}
	return prev.Summary, nil
}
