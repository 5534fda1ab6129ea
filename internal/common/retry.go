package common

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
)

// RetryPolicy is the single retry mechanism shared by every component that
// re-attempts work: bounded attempt count with a fixed inter-attempt delay.
type RetryPolicy struct {
	MaxAttempts int           // Total attempts, including the first
	Delay       time.Duration // Fixed delay between attempts
}

// Permanent wraps an error so Execute aborts immediately instead of retrying.
// Used for failures that retrying cannot help, e.g. a missing executable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Execute runs op until it succeeds, attempts are exhausted, the error is
// permanent, or ctx is cancelled. The returned error is the last attempt's.
func (p RetryPolicy) Execute(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts == 1 {
		// backoff treats a zero retry cap as uncapped, so a one-attempt
		// budget runs the operation directly.
		err := op()
		if perm, ok := err.(*backoff.PermanentError); ok {
			return perm.Err
		}
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(op, policy)
}
