package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/platform/logger"
	"github.com/recaplab/recap-api/internal/store"
)

// PostgresWeeklyDataStore implements the store.WeeklyDataStore interface:
// the read-only view over users and todos the pipeline builds prompts and
// summary documents from.
type PostgresWeeklyDataStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWeeklyDataStore creates a new PostgreSQL implementation of the
// WeeklyDataStore interface. If logger is nil, a default logger will be used.
func NewPostgresWeeklyDataStore(db store.DBTX, logger *slog.Logger) *PostgresWeeklyDataStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWeeklyDataStore{
		db:     db,
		logger: logger.With(slog.String("component", "weekly_data_store")),
	}
}

// Ensure PostgresWeeklyDataStore implements store.WeeklyDataStore interface
var _ store.WeeklyDataStore = (*PostgresWeeklyDataStore)(nil)

// ListUsers implements store.WeeklyDataStore.ListUsers.
func (s *PostgresWeeklyDataStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, email, created_at FROM users ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list users", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, err
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning user rows", slog.String("error", err.Error()))
		return nil, err
	}

	return users, nil
}

// GetWeeklyData implements store.WeeklyDataStore.GetWeeklyData. Completed
// items are bounded to the week's Monday-to-Friday window; the incomplete
// count covers items still open that existed before the window closed.
func (s *PostgresWeeklyDataStore) GetWeeklyData(
	ctx context.Context,
	userID uuid.UUID,
	year, week int,
) (*domain.WeeklyData, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	data := &domain.WeeklyData{UserID: userID}

	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE id = $1`, userID,
	).Scan(&data.AccountCreated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to load user for weekly data",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	start, end := domain.WeekWindow(year, week)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, completed_at
		FROM todos
		WHERE user_id = $1
		  AND completed = TRUE
		  AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at ASC
	`, userID, start, end)
	if err != nil {
		log.Error("failed to query completed todos",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	data.CompletedTodos = []domain.TodoSnapshot{}
	for rows.Next() {
		var snapshot domain.TodoSnapshot
		var completedAt sql.NullTime
		if err := rows.Scan(&snapshot.ID, &snapshot.Title, &completedAt); err != nil {
			log.Error("failed to scan todo row", slog.String("error", err.Error()))
			return nil, err
		}
		if completedAt.Valid {
			t := completedAt.Time
			snapshot.CompletedAt = &t
		}
		data.CompletedTodos = append(data.CompletedTodos, snapshot)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning todo rows", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM todos
		WHERE user_id = $1 AND completed = FALSE AND created_at < $2
	`, userID, end).Scan(&data.IncompleteCount)
	if err != nil {
		log.Error("failed to count incomplete todos",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Debug("weekly data loaded",
		slog.String("user_id", userID.String()),
		slog.Int("year", year),
		slog.Int("week", week),
		slog.Int("completed_count", len(data.CompletedTodos)),
		slog.Int("incomplete_count", data.IncompleteCount))

	return data, nil
}
