package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sequential week numbering: week N of a year is the Nth Monday-to-Friday
// block counted from January 1, where block 1 starts on the Monday of the
// week containing January 1 (that Monday may fall in the previous calendar
// year). This is deliberately not ISO week numbering.

// Common errors for week and customId handling
var (
	ErrMalformedCustomID = errors.New("malformed custom ID")
	ErrWeekOutOfRange    = errors.New("week out of range")
)

// customIDSeparator joins userId, year and week. User IDs are UUIDs and can
// never contain it, which keeps the format parseable with a plain split.
const customIDSeparator = "_"

// blockStart returns the Monday of the week containing January 1 of year.
func blockStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return mondayOf(jan1)
}

// mondayOf returns the Monday at 00:00 UTC of the week containing t.
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday is Sunday-based; shift so Monday is offset 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekOf returns the sequential week number and year for the given time.
func WeekOf(t time.Time) (week, year int) {
	t = t.UTC()
	year = t.Year()
	days := int(mondayOf(t).Sub(blockStart(year)).Hours() / 24)
	return days/7 + 1, year
}

// PreviousWeekOf returns the sequential week that ended before the week
// containing t. Used as the default submission target.
func PreviousWeekOf(t time.Time) (week, year int) {
	return WeekOf(t.UTC().AddDate(0, 0, -7))
}

// WeekStart returns the Monday at 00:00 UTC opening the given sequential week.
func WeekStart(year, week int) time.Time {
	return blockStart(year).AddDate(0, 0, (week-1)*7)
}

// WeekWindow returns the half-open [Monday, Saturday) interval covering the
// Monday-to-Friday block of the given sequential week.
func WeekWindow(year, week int) (start, end time.Time) {
	start = WeekStart(year, week)
	return start, start.AddDate(0, 0, 5)
}

// MonthOf returns the calendar month the given week's Monday falls in.
func MonthOf(year, week int) time.Month {
	return WeekStart(year, week).Month()
}

// WeeksIn returns the sequential week number of December 31, i.e. the number
// of week blocks the year spans.
func WeeksIn(year int) int {
	week, _ := WeekOf(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	return week
}

// PreviousWeek steps one week back from (year, week), crossing the year
// boundary when week is 1.
func PreviousWeek(year, week int) (prevYear, prevWeek int) {
	if week > 1 {
		return year, week - 1
	}
	return year - 1, WeeksIn(year - 1)
}

// FormatCustomID builds the stable join key linking a submitted request to
// its provider-side result: "{userId}_{year}_{week}".
func FormatCustomID(userID uuid.UUID, year, week int) string {
	return fmt.Sprintf("%s%s%d%s%d", userID, customIDSeparator, year, customIDSeparator, week)
}

// ParseCustomID splits a customId back into its user, year and week parts.
// Returns ErrMalformedCustomID if the value does not have exactly three
// underscore-separated tokens or any token fails to parse, and
// ErrWeekOutOfRange if the week token is outside [1,53].
func ParseCustomID(customID string) (userID uuid.UUID, year, week int, err error) {
	parts := strings.Split(customID, customIDSeparator)
	if len(parts) != 3 {
		return uuid.Nil, 0, 0, fmt.Errorf("%w: expected 3 tokens, got %d in %q",
			ErrMalformedCustomID, len(parts), customID)
	}

	userID, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, 0, 0, fmt.Errorf("%w: bad user ID %q: %v",
			ErrMalformedCustomID, parts[0], err)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return uuid.Nil, 0, 0, fmt.Errorf("%w: bad year %q: %v",
			ErrMalformedCustomID, parts[1], err)
	}

	week, err = strconv.Atoi(parts[2])
	if err != nil {
		return uuid.Nil, 0, 0, fmt.Errorf("%w: bad week %q: %v",
			ErrMalformedCustomID, parts[2], err)
	}

	if week < 1 || week > 53 {
		return uuid.Nil, 0, 0, fmt.Errorf("%w: week %d", ErrWeekOutOfRange, week)
	}

	return userID, year, week, nil
}
