package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Limiter enforces a per-key fixed window backed by an in-process store. The
// gateway holds no shared state, so a local window is enough; a multi-instance
// deployment would swap the store for a shared one.
type Limiter struct {
	store limiter.Store
}

// NewMemory returns a Limiter backed by an in-memory store.
func NewMemory() Limiter {
	return Limiter{store: memory.NewStore()}
}

// Allow consumes one slot for key within the window and reports whether the
// request may proceed, how many slots remain, and when the window resets.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	lctx, err := l.store.Get(ctx, key, rate)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
