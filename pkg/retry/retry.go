// Package retry implements a bounded retry policy with fixed or custom
// backoff, independent of the concurrency model of the retried operation.
package retry

import (
	"context"
	"time"
)

// Policy bounds how often an operation is attempted and how long to wait
// between attempts. Backoff receives the zero-based number of the attempt
// that just failed.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration

	// OnRetry, when set, runs before each re-attempt's backoff wait.
	OnRetry func()
}

// Fixed returns a policy that waits the same delay between every attempt.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return delay },
	}
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is
// canceled. Cancellation is observed between attempts, so a slow backoff
// never outlives the request. The last error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff(attempt)):
		}
	}
	return err
}
