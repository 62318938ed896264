// Package retry wraps storage calls in a bounded exponential backoff. It is a
// cross-cutting utility: callers decide what to retry, the policy here stays
// the same for everyone.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Permanent marks an error as not worth retrying (e.g. not-found, conflict).
func Permanent(err error) error { return backoff.Permanent(err) }

// Do runs op up to attempts times with exponential delay in between,
// stopping early on context cancellation or a Permanent error.
func Do(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
