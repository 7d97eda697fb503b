package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errRateLimited = errors.New("rate limited")
	errTransient   = errors.New("connection reset")
	errFatal       = errors.New("invalid input")
)

func classify(err error) Class {
	switch {
	case errors.Is(err, errRateLimited):
		return RateLimited
	case errors.Is(err, errTransient):
		return Transient
	default:
		return Fatal
	}
}

func testPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    60 * time.Millisecond,
		Classify:    classify,
	}
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	p := Policy{BaseDelay: time.Second, MaxDelay: 60 * time.Second}

	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
	assert.Equal(t, 60*time.Second, p.Backoff(6))
	assert.Equal(t, 60*time.Second, p.Backoff(20))
}

func TestDo_SucceedsAfterRateLimits(t *testing.T) {
	var calls int
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errRateLimited
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRateLimitAttempts(t *testing.T) {
	var calls int
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errRateLimited
	})

	require.ErrorIs(t, err, errRateLimited)
	assert.Equal(t, 5, calls)
}

func TestDo_TransientRetriesOnce(t *testing.T) {
	var calls int
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestDo_TransientRecovers(t *testing.T) {
	var calls int
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	var calls int
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFatal
	})

	require.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ObservesCancellationDuringBackoff(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Hour,
		MaxDelay:    2 * time.Hour,
		Classify:    classify,
	}

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context) error {
			calls++
			return errRateLimited
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}
