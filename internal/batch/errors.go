package batch

import "errors"

// Common errors returned by batch provider implementations
var (
	// ErrSubmitRejected is returned when the provider refuses the batch at
	// submission time. No job record exists in that case; resubmission is
	// the retry.
	ErrSubmitRejected = errors.New("batch submission rejected by provider")

	// ErrBatchNotFound is returned when the provider does not know the
	// requested batch identifier.
	ErrBatchNotFound = errors.New("batch not found at provider")

	// ErrOutputUnavailable is returned when a result artifact cannot be
	// downloaded yet or any more.
	ErrOutputUnavailable = errors.New("batch output unavailable")

	// ErrMalformedOutput is returned when a downloaded result artifact
	// cannot be parsed.
	ErrMalformedOutput = errors.New("malformed batch output")

	// ErrInvalidConfig is returned when a provider is constructed with an
	// invalid configuration.
	ErrInvalidConfig = errors.New("invalid batch provider configuration")
)
