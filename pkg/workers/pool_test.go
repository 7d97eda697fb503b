package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	pool := NewPool(4, zap.NewNop())
	pool.Start()

	var done int32
	for i := 0; i < 20; i++ {
		err := pool.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		})
		require.NoError(t, err)
	}

	pool.Wait()
	assert.Equal(t, int32(20), atomic.LoadInt32(&done))
	assert.Empty(t, pool.Errors())
}

func TestPool_CollectsTaskErrors(t *testing.T) {
	pool := NewPool(2, zap.NewNop())
	pool.Start()

	wantErr := errors.New("ingestion failed")
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		return wantErr
	}))
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		return nil
	}))

	pool.Wait()
	errs := pool.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], wantErr)
}

func TestPool_RejectsSubmitAfterShutdown(t *testing.T) {
	pool := NewPool(1, zap.NewNop())
	pool.Start()
	pool.Shutdown()

	err := pool.Submit(func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestPool_ShutdownCancelsTaskContext(t *testing.T) {
	pool := NewPool(1, zap.NewNop())
	pool.Start()

	started := make(chan struct{})
	stopped := make(chan struct{})
	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}))

	<-started
	pool.Shutdown()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled on shutdown")
	}
}
