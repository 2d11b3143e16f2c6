package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/primer-gateway/internal/resilience"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	result, err := resilience.Do(context.Background(), resilience.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := errors.New("boom")
	_, err := resilience.Do(context.Background(), resilience.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestDoReturnsImmediatelyOnSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	result, err := resilience.Do(context.Background(), resilience.DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 1, calls)
}

func TestDoBackoffDoubles(t *testing.T) {
	t.Parallel()

	base := 20 * time.Millisecond
	var stamps []time.Time
	_, _ = resilience.Do(context.Background(), resilience.Policy{MaxAttempts: 3, BaseDelay: base}, func(context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("always")
	})
	require.Len(t, stamps, 3)

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	require.GreaterOrEqual(t, first, base)
	require.GreaterOrEqual(t, second, 2*base)
	require.Less(t, second, 8*base)
}

func TestDoHonoursContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := resilience.Do(ctx, resilience.Policy{MaxAttempts: 5, BaseDelay: time.Second}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
