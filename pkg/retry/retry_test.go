package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/retry"
)

func fakeSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := retry.Do(context.Background(), &retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Sleep:        fakeSleep(&delays),
	}, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoRetriesWithExponentialBackoff(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := retry.Do(context.Background(), &retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Sleep:        fakeSleep(&delays),
	}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient failure")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	calls := 0
	failure := errors.New("persistent failure")

	err := retry.Do(context.Background(), &retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Sleep:        fakeSleep(&delays),
	}, func() error {
		calls++
		return failure
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
	// 最后一次失败后不再等待
	assert.Len(t, delays, 2)
}

func TestDoNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0

	err := retry.Do(context.Background(), &retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Retryable:    func(err error) bool { return !errors.Is(err, fatal) },
		Sleep: func(ctx context.Context, d time.Duration) error {
			t.Fatal("should not sleep for non-retryable error")
			return nil
		},
	}, func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoMaxDelayCap(t *testing.T) {
	var delays []time.Duration
	calls := 0

	_ = retry.Do(context.Background(), &retry.Config{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     3 * time.Second,
		Multiplier:   2.0,
		Sleep:        fakeSleep(&delays),
	}, func() error {
		calls++
		return errors.New("still failing")
	})

	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays)
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := retry.Do(ctx, &retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}, func() error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
