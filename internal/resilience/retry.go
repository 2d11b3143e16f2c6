package resilience

import (
	"context"
	"time"
)

// Policy bounds a retried operation: at most MaxAttempts sequential tries
// with an exponentially growing delay between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy matches the processor client defaults: three attempts with
// delays of 1s and 2s between them.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

func (p Policy) normalised() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	return p
}

// Do executes op until it succeeds or the attempt budget is exhausted,
// sleeping Backoff(BaseDelay, attempt, 0) between attempts. The wait is a
// timer select, so a request sitting in backoff never occupies a thread and
// honours context cancellation.
//
// Every failure is retried identically; there is no distinction between
// transient transport errors and definite upstream rejections. A 4xx
// validation error from upstream therefore burns the whole backoff budget
// before it reaches the caller. TODO: retry only 5xx/transport failures once
// the upstream error contract is settled.
func Do[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	p := policy.normalised()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		timer := time.NewTimer(Backoff(p.BaseDelay, attempt, 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
