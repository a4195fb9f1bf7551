package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for WeeklySummary
var (
	ErrEmptySummaryUserID = errors.New("summary user ID cannot be empty")
	ErrEmptySummaryText   = errors.New("summary text cannot be empty")
)

// TodoSnapshot is the per-item slice of a user's week captured in the
// aggregate summary document. It mirrors the todo at completion time, not
// the live row.
type TodoSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// WeeklyData is what the data access layer hands the prompt builder and the
// consumer: the user's completed items for the target week, the count of
// items still open, and the account creation date for first-week framing.
type WeeklyData struct {
	UserID          uuid.UUID
	CompletedTodos  []TodoSnapshot
	IncompleteCount int
	AccountCreated  time.Time
}

// WeeklySummary is the aggregate result document written once per user per
// week: the generated summary text plus the completed-todo snapshot it was
// derived from. Keyed by the customId ("{userId}_{year}_{week}") and
// idempotently overwritten on re-consumption.
type WeeklySummary struct {
	UserID          uuid.UUID      `json:"user_id"`
	Year            int            `json:"year"`
	Week            int            `json:"week"`
	Month           time.Month     `json:"month"`
	Summary         string         `json:"summary"`
	CompletedTodos  []TodoSnapshot `json:"completed_todos"`
	IncompleteCount int            `json:"incomplete_count"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// Key returns the document's customId key.
func (s *WeeklySummary) Key() string {
	return FormatCustomID(s.UserID, s.Year, s.Week)
}

// Validate checks if the WeeklySummary has valid data.
func (s *WeeklySummary) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptySummaryUserID
	}

	if s.Week < 1 || s.Week > 53 {
		return ErrInvalidWeek
	}

	if s.Summary == "" {
		return ErrEmptySummaryText
	}

	return nil
}
