package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/recaplab/recap-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: nil,
		},
		{
			name:     "no rows maps to not found",
			err:      sql.ErrNoRows,
			expected: store.ErrNotFound,
		},
		{
			name:     "wrapped no rows maps to not found",
			err:      fmt.Errorf("query batch job: %w", sql.ErrNoRows),
			expected: store.ErrNotFound,
		},
		{
			name:     "unique violation maps to duplicate",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "batch_jobs_open_unique"},
			expected: store.ErrDuplicate,
		},
		{
			name:     "foreign key violation maps to invalid entity",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "weekly_summaries_user_id_fkey"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "check violation maps to invalid entity",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "batch_jobs_week_check"},
			expected: store.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mapped := MapError(tt.err)
			if tt.expected == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tt.expected)
		})
	}
}

func TestMapErrorPassesThroughUnknownErrors(t *testing.T) {
	t.Parallel()

	original := errors.New("connection reset by peer")
	assert.Equal(t, original, MapError(original))

	pgErr := &pgconn.PgError{Code: "57014"} // query_canceled
	assert.Equal(t, error(pgErr), MapError(pgErr))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
	assert.False(t, IsUniqueViolation(nil))
}
