package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/go-rsp/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsUntilFalse(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	var iterations atomic.Int32
	var exited atomic.Bool

	err := mgr.Start("counter", func() bool {
		return iterations.Add(1) < 5
	}, func() { exited.Store(true) })
	require.NoError(t, err)

	mgr.Wait()

	assert.Equal(t, int32(5), iterations.Load())
	assert.True(t, exited.Load())
	assert.Equal(t, 0, mgr.Count())
}

func TestManager_Stop(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	started := make(chan struct{})
	var once atomic.Bool

	require.NoError(t, mgr.Start("forever", func() bool {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		time.Sleep(time.Millisecond)

		return true
	}, nil))

	<-started
	assert.Equal(t, 1, mgr.Count())

	mgr.Stop()
	mgr.Wait()
	assert.Equal(t, 0, mgr.Count())

	err := mgr.Start("late", func() bool { return false }, nil)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_ParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewManager(ctx, logger.NewNop())

	require.NoError(t, mgr.Start("loop", func() bool {
		time.Sleep(time.Millisecond)
		return true
	}, nil))

	cancel()
	mgr.Wait()

	assert.ErrorIs(t, mgr.Context().Err(), context.Canceled)
}

func TestManager_RecoversPanic(t *testing.T) {
	mgr := NewManager(context.Background(), logger.NewNop())

	var exited atomic.Bool
	require.NoError(t, mgr.Start("panics", func() bool {
		panic("boom")
	}, func() { exited.Store(true) }))

	mgr.Wait()
	assert.True(t, exited.Load())
}

func TestManager_NilFunc(t *testing.T) {
	mgr := NewManager(context.Background(), nil)
	assert.Error(t, mgr.Start("nil", nil, nil))
}
