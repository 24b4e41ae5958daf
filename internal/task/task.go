// Package task runs named loop goroutines with cancellation and panic protection.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-rsp/logger"
)

// ErrStopped is returned by Start once the manager has been stopped.
var ErrStopped = errors.New("task: manager already stopped")

// Func is the body of a loop task. It returns true to run again, false to stop the goroutine.
type Func func() bool

// CancelFunc is called when a task goroutine exits, for whatever reason.
type CancelFunc func()

// Manager manages the lifecycle of loop goroutines.
//
// Example Usage:
//
//	mgr := task.NewManager(ctx, logger)
//
//	_ = mgr.Start("session", func() bool {
//	    // ... one iteration ...
//	    return true
//	}, nil)
//
//	mgr.Wait()
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
}

// NewManager creates a Manager whose tasks stop when ctx is done or Stop is called.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}

	mgr := &Manager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Start runs fn in a new goroutine until it returns false, panics, or the manager stops.
// onExit, if not nil, runs when the goroutine exits.
func (mgr *Manager) Start(name string, fn Func, onExit CancelFunc) error {
	if fn == nil {
		return fmt.Errorf("task: %s has no task function", name)
	}

	if err := mgr.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStopped, name, err)
	}

	mgr.logger.Debug("start task", "name", name)

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer mgr.wg.Done()
		defer func() {
			mgr.count.Add(-1)
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.Count())
		}()

		if onExit != nil {
			defer onExit()
		}

		mgr.runLoop(name, fn)
	}()

	return nil
}

// Stop signals every running task to stop after its current iteration.
func (mgr *Manager) Stop() {
	mgr.cancel()
}

// Wait blocks until every task goroutine has exited.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()
}

// Count returns the number of running task goroutines.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}

// Context returns the context shared by the manager's tasks.
func (mgr *Manager) Context() context.Context {
	return mgr.ctx
}

func (mgr *Manager) runLoop(name string, fn Func) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "name", name, "panic", r)
		}
	}()

	for {
		select {
		case <-mgr.ctx.Done():
			return
		default:
			if !fn() {
				return
			}
		}
	}
}
