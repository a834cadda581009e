package powctl

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

// Default retry policy for bus transactions.
const (
	DefaultMaxAttempts   = 3
	DefaultRetryInterval = 20 * time.Millisecond
)

// Op is one hardware transaction, or a sequence of them.
type Op func() error

// RetryPolicy bounds how many times an Op is re-issued.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	Interval    time.Duration // pause between attempts; 0 retries immediately
}

// DefaultRetryPolicy returns the policy drivers use when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Interval: DefaultRetryInterval}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if p.Interval > 0 {
		b = backoff.NewConstantBackOff(p.Interval)
	}
	b = backoff.WithMaxRetries(b, uint64(p.attempts()-1))
	return backoff.WithContext(b, ctx)
}

// WithRetry returns an Op that issues op up to p.MaxAttempts times, stopping at
// the first success. When every attempt fails the last error is returned
// unchanged. It does not take any lock, so it may run inside a critical
// section the caller already holds.
func WithRetry(ctx context.Context, p RetryPolicy, op Op) Op {
	if p.attempts() == 1 {
		// backoff.WithMaxRetries(b, 0) never stops, so a single attempt
		// bypasses it.
		return op
	}
	return func() error {
		return backoff.Retry(backoff.Operation(op), p.backOff(ctx))
	}
}

// WithLock returns an Op that runs op with l held.
func WithLock(l sync.Locker, op Op) Op {
	return func() error {
		l.Lock()
		defer l.Unlock()
		return op()
	}
}
