package services

import "fmt"

// FetchError means the transcript could not be retrieved (missing captions,
// invalid ID, upstream failure). All causes are treated identically upstream.
type FetchError struct {
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("transcript fetch failed for %s: %v", e.VideoID, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// EmbeddingError means a vectorization call failed. Embedding batches are
// all-or-nothing.
type EmbeddingError struct{ Err error }

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding failed: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError wraps a persistence failure.
type StoreError struct{ Err error }

func (e *StoreError) Error() string { return fmt.Sprintf("store operation failed: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError reports malformed caller input, per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// NotFoundError reports a query against a video that was never ingested.
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// InFlightError reports a request against a video still being ingested.
type InFlightError struct{ Message string }

func (e *InFlightError) Error() string { return e.Message }
