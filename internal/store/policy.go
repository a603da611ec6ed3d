package store

import (
	"context"
	"time"
)

// CallPolicy bounds every remote-store call. Fetches get a bounded
// retry with backoff; mutations run at most once, so a failure always
// means "state unchanged" to the caller.
type CallPolicy struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

func (p CallPolicy) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

// Fetch runs fn under the per-call timeout, retrying up to
// RetryAttempts times. A timeout expiry is retried like any other
// failure.
func (p CallPolicy) Fetch(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && p.RetryBackoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.RetryBackoff * time.Duration(attempt)):
			}
		}

		callCtx, cancel := p.withTimeout(ctx)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return err
		}
	}

	return err
}

// Mutate runs fn once under the per-call timeout. Never retried.
func (p CallPolicy) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()
	return fn(callCtx)
}
