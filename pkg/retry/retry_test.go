package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{Attempts: 2, BaseDelay: time.Millisecond}

	inner := errors.New("still broken")
	err := p.Do(context.Background(), "op", func(ctx context.Context) error { return inner })
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("err = %v, want ErrExhausted", err)
	}
	if !errors.Is(err, inner) {
		t.Errorf("err = %v, want the last attempt error wrapped", err)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	p := Policy{Attempts: 5, BaseDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want no retries after cancellation", calls)
	}
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	p := Policy{Attempts: 1, Timeout: 10 * time.Millisecond}

	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
