package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/platform/logger"
	"github.com/recaplab/recap-api/internal/store"
)

// PostgresSummaryStore implements the store.SummaryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSummaryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSummaryStore creates a new PostgreSQL implementation of the
// SummaryStore interface. If logger is nil, a default logger will be used.
func NewPostgresSummaryStore(db store.DBTX, logger *slog.Logger) *PostgresSummaryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSummaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "summary_store")),
	}
}

// Ensure PostgresSummaryStore implements store.SummaryStore interface
var _ store.SummaryStore = (*PostgresSummaryStore)(nil)

// Upsert implements store.SummaryStore.Upsert. The (user_id, year, week)
// key makes re-consumption of the same batch a plain overwrite.
func (s *PostgresSummaryStore) Upsert(ctx context.Context, summary *domain.WeeklySummary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := summary.Validate(); err != nil {
		log.Warn("summary validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("key", summary.Key()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	todosJSON, err := json.Marshal(summary.CompletedTodos)
	if err != nil {
		return fmt.Errorf("failed to marshal completed todos: %w", err)
	}

	query := `
		INSERT INTO weekly_summaries
			(user_id, year, week, month, summary, completed_todos, incomplete_count, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, year, week) DO UPDATE
		SET month = EXCLUDED.month,
		    summary = EXCLUDED.summary,
		    completed_todos = EXCLUDED.completed_todos,
		    incomplete_count = EXCLUDED.incomplete_count,
		    generated_at = EXCLUDED.generated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		summary.UserID,
		summary.Year,
		summary.Week,
		int(summary.Month),
		summary.Summary,
		todosJSON,
		summary.IncompleteCount,
		summary.GeneratedAt,
	)
	if err != nil {
		log.Error("failed to upsert weekly summary",
			slog.String("error", err.Error()),
			slog.String("key", summary.Key()))
		return MapError(err)
	}

	log.Debug("weekly summary upserted", slog.String("key", summary.Key()))
	return nil
}

// GetByKey implements store.SummaryStore.GetByKey.
// Returns store.ErrSummaryNotFound if no document exists for the key.
func (s *PostgresSummaryStore) GetByKey(
	ctx context.Context,
	userID uuid.UUID,
	year, week int,
) (*domain.WeeklySummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, year, week, month, summary, completed_todos, incomplete_count, generated_at
		FROM weekly_summaries
		WHERE user_id = $1 AND year = $2 AND week = $3
	`

	var (
		summary   domain.WeeklySummary
		month     int
		todosJSON []byte
	)

	err := s.db.QueryRowContext(ctx, query, userID, year, week).Scan(
		&summary.UserID,
		&summary.Year,
		&summary.Week,
		&month,
		&summary.Summary,
		&todosJSON,
		&summary.IncompleteCount,
		&summary.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSummaryNotFound
		}
		log.Error("failed to get weekly summary",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("year", year),
			slog.Int("week", week))
		return nil, err
	}

	summary.Month = time.Month(month)

	if len(todosJSON) > 0 {
		if err := json.Unmarshal(todosJSON, &summary.CompletedTodos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal completed todos: %w", err)
		}
	}

	return &summary, nil
}
