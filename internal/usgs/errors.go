package usgs

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an event id the provider does not know.
var ErrNotFound = errors.New("event not found")

// HTTPError is a non-transient provider response (non-2xx, non-429).
// It is surfaced immediately without retry.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.Status)
}

// RateLimitError reports that the provider kept returning HTTP 429 after
// every configured escalating wait was spent.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded after %d attempts", e.Attempts)
}

// NetworkError reports a transport-level failure that persisted through
// every backoff retry.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
