package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned (wrapped) when every attempt has failed.
var ErrExhausted = errors.New("all retry attempts exhausted")

// Policy bounds a call to an external collaborator: each attempt runs under
// its own timeout, and failed attempts are retried with exponential backoff
// up to a fixed number of tries.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Timeout applies to each individual attempt. Zero means no per-attempt
	// timeout beyond the caller's context.
	Timeout time.Duration
	// BaseDelay is the backoff before the second attempt; it doubles after
	// each subsequent failure.
	BaseDelay time.Duration
}

// Default is a conservative policy for network calls to the corpus store and
// the embedding/generation collaborators.
var Default = Policy{
	Attempts:  3,
	Timeout:   30 * time.Second,
	BaseDelay: 500 * time.Millisecond,
}

// Do runs fn under the policy. The operation name is only used in error
// messages. The caller's context cancels both waits and attempts.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		// A cancelled parent context is not transient; stop immediately.
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w: %w", op, attempts, ErrExhausted, lastErr)
}
