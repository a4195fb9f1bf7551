package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "wrapped generic error",
			err:      fmt.Errorf("failed to do something: %w", errors.New("some error")),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrBatchJobNotFound",
			err:      ErrBatchJobNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrBatchJobNotFound",
			err:      fmt.Errorf("failed to load job: %w", ErrBatchJobNotFound),
			expected: true,
		},
		{
			name:     "ErrUserNotFound",
			err:      ErrUserNotFound,
			expected: true,
		},
		{
			name:     "ErrSummaryNotFound",
			err:      ErrSummaryNotFound,
			expected: true,
		},
		{
			name:     "ErrDuplicate is not a not-found error",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestOpenBatchJobExistsIsDuplicate(t *testing.T) {
	if !errors.Is(ErrOpenBatchJobExists, ErrDuplicate) {
		t.Error("ErrOpenBatchJobExists should match ErrDuplicate")
	}
	if IsNotFoundError(ErrOpenBatchJobExists) {
		t.Error("ErrOpenBatchJobExists should not be a not-found error")
	}
}
