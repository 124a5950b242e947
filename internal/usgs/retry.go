package usgs

import "time"

// ErrorKind classifies a failed request for retry purposes.
type ErrorKind int

const (
	// KindNetwork is a transport-level failure (timeout, DNS, reset).
	KindNetwork ErrorKind = iota
	// KindRateLimit is an HTTP 429 response.
	KindRateLimit
)

func (k ErrorKind) String() string {
	if k == KindRateLimit {
		return "rate_limit"
	}
	return "network"
}

// RetryPolicy decides the wait before the next attempt, independent of the
// fetch call itself. Network failures back off exponentially; rate limits
// walk a fixed escalating schedule.
type RetryPolicy struct {
	maxNetworkRetries int
	baseDelay         time.Duration
	rateLimitWaits    []time.Duration
}

// NewRetryPolicy builds a policy. maxNetworkRetries bounds transport retries,
// baseDelay is the first backoff step (doubling each retry), and
// rateLimitWaits is the fixed wait schedule for consecutive 429 responses.
func NewRetryPolicy(maxNetworkRetries int, baseDelay time.Duration, rateLimitWaits []time.Duration) RetryPolicy {
	if maxNetworkRetries < 0 {
		maxNetworkRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if len(rateLimitWaits) == 0 {
		rateLimitWaits = []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}
	}
	return RetryPolicy{
		maxNetworkRetries: maxNetworkRetries,
		baseDelay:         baseDelay,
		rateLimitWaits:    rateLimitWaits,
	}
}

// DefaultRetryPolicy matches the provider's documented courtesy limits.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(3, 2*time.Second, nil)
}

// NextDelay returns the wait before retrying after the attempt-th consecutive
// failure of the given kind (attempt is 1-based). ok is false when the policy
// gives up.
func (p RetryPolicy) NextDelay(attempt int, kind ErrorKind) (delay time.Duration, ok bool) {
	if attempt < 1 {
		return 0, false
	}
	switch kind {
	case KindRateLimit:
		if attempt > len(p.rateLimitWaits) {
			return 0, false
		}
		return p.rateLimitWaits[attempt-1], true
	default:
		if attempt > p.maxNetworkRetries {
			return 0, false
		}
		return p.baseDelay << (attempt - 1), true
	}
}
