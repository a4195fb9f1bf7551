package batch

import "context"

// State is the provider-neutral lifecycle of a submitted batch.
type State string

const (
	StateValidating State = "validating"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether the provider will never advance this batch again.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Request is one keyed generation request within a batch. CustomID is the
// caller's join key and is echoed back verbatim on the matching result.
type Request struct {
	CustomID string
	Prompt   string
}

// StatusSnapshot is the provider's view of a batch at one point in time.
// File IDs are opaque references to provider-held artifacts and are only
// set once the corresponding artifact exists.
type StatusSnapshot struct {
	BatchID      string
	State        State
	OutputFileID string
	ErrorFileID  string
}

// Provider is the external batch API boundary. Implementations may take up
// to the vendor's batch window (reference: 24 hours) to finish a batch;
// every method is a blocking network call and honors ctx cancellation.
type Provider interface {
	// SubmitBatch submits all requests as a single batch and returns the
	// provider-assigned batch identifier. A non-nil error means nothing
	// was accepted.
	SubmitBatch(ctx context.Context, requests []Request) (string, error)

	// CheckStatus queries the provider for the batch's current state.
	CheckStatus(ctx context.Context, batchID string) (*StatusSnapshot, error)

	// DownloadResults fetches and parses the result artifact behind fileID
	// into per-item results. Items the provider failed to generate come
	// back with Err set rather than being dropped.
	DownloadResults(ctx context.Context, fileID string) ([]ItemResult, error)
}
