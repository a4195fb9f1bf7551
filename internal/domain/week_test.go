package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    time.Time
		wantWeek int
		wantYear int
	}{
		{
			// January 1 2024 is a Monday, so block 1 opens on it.
			name:     "first day of a Monday-starting year",
			input:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantWeek: 1,
			wantYear: 2024,
		},
		{
			name:     "mid March lands in week 10",
			input:    time.Date(2024, time.March, 6, 15, 30, 0, 0, time.UTC),
			wantWeek: 10,
			wantYear: 2024,
		},
		{
			// January 1 2023 is a Sunday; block 1 opens Monday December 26 2022.
			name:     "week containing January 1 starts in prior calendar year",
			input:    time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantWeek: 1,
			wantYear: 2023,
		},
		{
			name:     "first full week of a Sunday-starting year is week 2",
			input:    time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC),
			wantWeek: 2,
			wantYear: 2023,
		},
		{
			name:     "last day of the year",
			input:    time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
			wantWeek: 53,
			wantYear: 2024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			week, year := WeekOf(tt.input)
			assert.Equal(t, tt.wantWeek, week)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestWeekWindow(t *testing.T) {
	t.Parallel()

	start, end := WeekWindow(2024, 10)

	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Monday, start.Weekday())
	// Half-open window ends on Saturday so Friday is fully included.
	assert.Equal(t, time.Saturday, end.Weekday())
	assert.Equal(t, 5*24*time.Hour, end.Sub(start))
}

func TestMonthOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.March, MonthOf(2024, 10))
	assert.Equal(t, time.January, MonthOf(2024, 1))
	// Week 1 of 2023 starts December 26 2022, so its month is December.
	assert.Equal(t, time.December, MonthOf(2023, 1))
}

func TestPreviousWeek(t *testing.T) {
	t.Parallel()

	t.Run("within a year", func(t *testing.T) {
		t.Parallel()
		year, week := PreviousWeek(2024, 10)
		assert.Equal(t, 2024, year)
		assert.Equal(t, 9, week)
	})

	t.Run("crosses the year boundary", func(t *testing.T) {
		t.Parallel()
		year, week := PreviousWeek(2024, 1)
		assert.Equal(t, 2023, year)
		assert.Equal(t, WeeksIn(2023), week)
	})
}

func TestPreviousWeekOf(t *testing.T) {
	t.Parallel()

	// Saturday March 9 2024 sits in week 10; the week that just ended is 10
	// itself only once Monday passes, so stepping back 7 days yields week 9.
	week, year := PreviousWeekOf(time.Date(2024, time.March, 9, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, 9, week)
	assert.Equal(t, 2024, year)
}

func TestCustomIDRoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	customID := FormatCustomID(userID, 2024, 10)

	gotUser, gotYear, gotWeek, err := ParseCustomID(customID)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, 2024, gotYear)
	assert.Equal(t, 10, gotWeek)
}

func TestParseCustomIDErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "too few tokens",
			input:   "2024_10",
			wantErr: ErrMalformedCustomID,
		},
		{
			name:    "too many tokens",
			input:   uuid.NewString() + "_2024_10_extra",
			wantErr: ErrMalformedCustomID,
		},
		{
			name:    "invalid user ID",
			input:   "not-a-uuid_2024_10",
			wantErr: ErrMalformedCustomID,
		},
		{
			name:    "non-numeric year",
			input:   uuid.NewString() + "_twenty_10",
			wantErr: ErrMalformedCustomID,
		},
		{
			name:    "non-numeric week",
			input:   uuid.NewString() + "_2024_ten",
			wantErr: ErrMalformedCustomID,
		},
		{
			name:    "week zero",
			input:   uuid.NewString() + "_2024_0",
			wantErr: ErrWeekOutOfRange,
		},
		{
			name:    "week beyond 53",
			input:   uuid.NewString() + "_2024_54",
			wantErr: ErrWeekOutOfRange,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: ErrMalformedCustomID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, _, err := ParseCustomID(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
