package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/platform/logger"
	"github.com/recaplab/recap-api/internal/store"
)

// terminalStatuses is inlined into WHERE clauses guarding against writes to
// jobs that already reached a terminal state.
const terminalStatuses = "('completed', 'failed', 'cancelled')"

// openPeriodIndex is the partial unique index allowing at most one
// non-terminal job per (type, year, week). A violation on it means a
// concurrent submission won the period, not a duplicate batch ID.
const openPeriodIndex = "uq_batch_jobs_open_period"

// PostgresBatchJobStore implements the store.BatchJobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBatchJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBatchJobStore creates a new PostgreSQL implementation of the
// BatchJobStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, a default logger will be used.
func NewPostgresBatchJobStore(db store.DBTX, logger *slog.Logger) *PostgresBatchJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBatchJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "batch_job_store")),
	}
}

// Ensure PostgresBatchJobStore implements store.BatchJobStore interface
var _ store.BatchJobStore = (*PostgresBatchJobStore)(nil)

const batchJobColumns = `id, type, week, year, status, total_requests,
	output_file_id, error_file_id, success_count, error_count, errors,
	submitted_at, completed_at`

// Create implements store.BatchJobStore.Create.
// Returns store.ErrDuplicate if a job with the same provider batch ID exists.
func (s *PostgresBatchJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("batch job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	errorsJSON, err := marshalItemErrors(job.Errors)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO batch_jobs (` + batchJobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Type,
		job.Week,
		job.Year,
		job.Status,
		job.TotalRequests,
		nullableString(job.OutputFileID),
		nullableString(job.ErrorFileID),
		job.SuccessCount,
		job.ErrorCount,
		errorsJSON,
		job.SubmittedAt,
		job.CompletedAt,
	)

	if err != nil {
		log.Error("failed to create batch job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID))
		return mapCreateError(err, job)
	}

	log.Info("batch job created",
		slog.String("job_id", job.ID),
		slog.Int("week", job.Week),
		slog.Int("year", job.Year),
		slog.Int("total_requests", job.TotalRequests))
	return nil
}

// mapCreateError translates insert failures, distinguishing a lost race on
// the open-period index from a plain duplicate batch ID.
func mapCreateError(err error, job *domain.BatchJob) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == openPeriodIndex {
		return fmt.Errorf("%w: a non-terminal %s job already covers week %d/%d",
			store.ErrOpenBatchJobExists, job.Type, job.Week, job.Year)
	}
	return MapError(err)
}

// GetByID implements store.BatchJobStore.GetByID.
// Returns store.ErrBatchJobNotFound if the job does not exist.
func (s *PostgresBatchJobStore) GetByID(ctx context.Context, id string) (*domain.BatchJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + batchJobColumns + ` FROM batch_jobs WHERE id = $1`

	job, err := scanBatchJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("batch job not found", slog.String("job_id", id))
			return nil, store.ErrBatchJobNotFound
		}
		log.Error("failed to get batch job",
			slog.String("error", err.Error()),
			slog.String("job_id", id))
		return nil, err
	}

	return job, nil
}

// FindOpen implements store.BatchJobStore.FindOpen.
// Returns store.ErrBatchJobNotFound when no non-terminal job covers the period.
func (s *PostgresBatchJobStore) FindOpen(
	ctx context.Context,
	jobType domain.BatchJobType,
	week, year int,
) (*domain.BatchJob, error) {
	query := `
		SELECT ` + batchJobColumns + `
		FROM batch_jobs
		WHERE type = $1 AND week = $2 AND year = $3
		  AND status NOT IN ` + terminalStatuses + `
		ORDER BY submitted_at DESC
		LIMIT 1
	`

	job, err := scanBatchJob(s.db.QueryRowContext(ctx, query, jobType, week, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBatchJobNotFound
		}
		return nil, err
	}

	return job, nil
}

// ListByStatus implements store.BatchJobStore.ListByStatus.
func (s *PostgresBatchJobStore) ListByStatus(
	ctx context.Context,
	statuses ...domain.BatchJobStatus,
) ([]*domain.BatchJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(statuses) == 0 {
		return []*domain.BatchJob{}, nil
	}

	// Build the IN list positionally; statuses come from the callers'
	// constants, never from user input.
	query := `SELECT ` + batchJobColumns + ` FROM batch_jobs WHERE status IN (`
	args := make([]any, 0, len(statuses))
	for i, status := range statuses {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("$%d", i+1)
		args = append(args, status)
	}
	query += `) ORDER BY submitted_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list batch jobs by status",
			slog.String("error", err.Error()))
		return nil, err
	}

	return collectBatchJobs(rows, log)
}

// ListRecent implements store.BatchJobStore.ListRecent.
func (s *PostgresBatchJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.BatchJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + batchJobColumns + ` FROM batch_jobs ORDER BY submitted_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		log.Error("failed to list recent batch jobs",
			slog.String("error", err.Error()))
		return nil, err
	}

	return collectBatchJobs(rows, log)
}

// UpdateStatus implements store.BatchJobStore.UpdateStatus.
// The guard clause refuses the write when the job is already terminal,
// which keeps status movement monotonic even if two pollers race.
func (s *PostgresBatchJobStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.BatchJobStatus,
	outputFileID, errorFileID string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE batch_jobs
		SET status = $1,
		    output_file_id = COALESCE($2, output_file_id),
		    error_file_id = COALESCE($3, error_file_id)
		WHERE id = $4 AND status NOT IN ` + terminalStatuses + `
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		nullableString(outputFileID),
		nullableString(errorFileID),
		id,
	)
	if err != nil {
		log.Error("failed to update batch job status",
			slog.String("error", err.Error()),
			slog.String("job_id", id),
			slog.String("status", string(status)))
		return err
	}

	return s.checkGuardedWrite(ctx, result, id, status, log)
}

// Complete implements store.BatchJobStore.Complete: the terminal transition
// after consumption, recording final counters and per-item errors.
func (s *PostgresBatchJobStore) Complete(
	ctx context.Context,
	id string,
	successCount, errorCount int,
	itemErrors []domain.ItemError,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	errorsJSON, err := marshalItemErrors(itemErrors)
	if err != nil {
		return err
	}

	query := `
		UPDATE batch_jobs
		SET status = $1, success_count = $2, error_count = $3, errors = $4, completed_at = $5
		WHERE id = $6 AND status NOT IN ` + terminalStatuses + `
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.BatchJobStatusCompleted,
		successCount,
		errorCount,
		errorsJSON,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to complete batch job",
			slog.String("error", err.Error()),
			slog.String("job_id", id))
		return err
	}

	if err := s.checkGuardedWrite(ctx, result, id, domain.BatchJobStatusCompleted, log); err != nil {
		return err
	}

	log.Info("batch job completed",
		slog.String("job_id", id),
		slog.Int("success_count", successCount),
		slog.Int("error_count", errorCount))
	return nil
}

// Fail implements store.BatchJobStore.Fail with the provider-reported
// terminal status (failed or cancelled) and reason.
func (s *PostgresBatchJobStore) Fail(
	ctx context.Context,
	id string,
	status domain.BatchJobStatus,
	reason string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsTerminalStatus(status) || status == domain.BatchJobStatusCompleted {
		return fmt.Errorf("%w: %s is not a failure status", store.ErrInvalidEntity, status)
	}

	errorsJSON, err := marshalItemErrors([]domain.ItemError{{CustomID: "", Error: reason}})
	if err != nil {
		return err
	}

	query := `
		UPDATE batch_jobs
		SET status = $1, errors = $2, completed_at = $3
		WHERE id = $4 AND status NOT IN ` + terminalStatuses + `
	`

	result, err := s.db.ExecContext(ctx, query, status, errorsJSON, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to mark batch job failed",
			slog.String("error", err.Error()),
			slog.String("job_id", id))
		return err
	}

	if err := s.checkGuardedWrite(ctx, result, id, status, log); err != nil {
		return err
	}

	log.Warn("batch job marked failed",
		slog.String("job_id", id),
		slog.String("status", string(status)),
		slog.String("reason", reason))
	return nil
}

// ListOlderThan implements store.BatchJobStore.ListOlderThan: terminal jobs
// whose completion time (submission time when never completed) predates cutoff.
func (s *PostgresBatchJobStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.BatchJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + batchJobColumns + `
		FROM batch_jobs
		WHERE status IN ` + terminalStatuses + `
		  AND COALESCE(completed_at, submitted_at) < $1
		ORDER BY submitted_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		log.Error("failed to list batch jobs older than cutoff",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff))
		return nil, err
	}

	return collectBatchJobs(rows, log)
}

// Delete implements store.BatchJobStore.Delete.
// Returns store.ErrBatchJobNotFound if the job does not exist.
func (s *PostgresBatchJobStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM batch_jobs WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete batch job",
			slog.String("error", err.Error()),
			slog.String("job_id", id))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return store.ErrBatchJobNotFound
	}

	log.Info("batch job deleted", slog.String("job_id", id))
	return nil
}

// checkGuardedWrite distinguishes "job does not exist" from "job is already
// terminal" when a guarded UPDATE matched no rows.
func (s *PostgresBatchJobStore) checkGuardedWrite(
	ctx context.Context,
	result sql.Result,
	id string,
	status domain.BatchJobStatus,
	log *slog.Logger,
) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM batch_jobs WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}

	if !exists {
		return store.ErrBatchJobNotFound
	}

	log.Warn("refused status write to terminal batch job",
		slog.String("job_id", id),
		slog.String("attempted_status", string(status)))
	return fmt.Errorf("%w: job %s is terminal", store.ErrStaleTransition, id)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBatchJob reads one batch job row.
func scanBatchJob(row rowScanner) (*domain.BatchJob, error) {
	var (
		job          domain.BatchJob
		outputFileID sql.NullString
		errorFileID  sql.NullString
		errorsJSON   []byte
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.Type,
		&job.Week,
		&job.Year,
		&job.Status,
		&job.TotalRequests,
		&outputFileID,
		&errorFileID,
		&job.SuccessCount,
		&job.ErrorCount,
		&errorsJSON,
		&job.SubmittedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.OutputFileID = outputFileID.String
	job.ErrorFileID = errorFileID.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &job.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch job errors: %w", err)
		}
	}

	return &job, nil
}

// collectBatchJobs drains rows into a slice, always returning a non-nil slice.
func collectBatchJobs(rows *sql.Rows, log *slog.Logger) ([]*domain.BatchJob, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	jobs := []*domain.BatchJob{}
	for rows.Next() {
		job, err := scanBatchJob(rows)
		if err != nil {
			log.Error("failed to scan batch job row", slog.String("error", err.Error()))
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning batch job rows", slog.String("error", err.Error()))
		return nil, err
	}

	return jobs, nil
}

// marshalItemErrors serializes per-item errors for the jsonb column.
// An empty list is stored as an empty JSON array, not NULL.
func marshalItemErrors(itemErrors []domain.ItemError) ([]byte, error) {
	if itemErrors == nil {
		itemErrors = []domain.ItemError{}
	}
	data, err := json.Marshal(itemErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item errors: %w", err)
	}
	return data, nil
}

// nullableString maps "" to NULL so COALESCE-guarded updates never blank an
// already-set file ID with an empty value.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
