package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrStaleTransition is returned when a status update would move a batch
	// job backwards through its transition table. The write is refused and
	// the stored record is left untouched.
	ErrStaleTransition = errors.New("stale status transition")

	// Entity-specific "not found" errors

	// ErrBatchJobNotFound indicates that the requested batch job does not exist.
	ErrBatchJobNotFound = fmt.Errorf("%w: batch job", ErrNotFound)

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrSummaryNotFound indicates that no aggregate summary document exists
	// for the requested user and week.
	ErrSummaryNotFound = fmt.Errorf("%w: weekly summary", ErrNotFound)

	// ErrOpenBatchJobExists indicates that a non-terminal job already covers
	// the requested (type, week, year) and a second submission was refused.
	ErrOpenBatchJobExists = fmt.Errorf("%w: open batch job for period", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
