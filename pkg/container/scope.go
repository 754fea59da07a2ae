// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
)

type (
	// Task is a unit of background work bound to a Scope. It must return
	// promptly once ctx is cancelled.
	Task func(ctx context.Context) error

	// Dispatcher delivers task completion callbacks, typically onto the host's
	// UI thread. The zero Runtime delivers them on the task's goroutine.
	//
	// A dispatched callback is dropped if its scope was disposed first. That
	// check is only race-free when the dispatcher runs callbacks on the same
	// goroutine that disposes scopes, that is the one calling Router.Pop,
	// Router.Back and Router.Shutdown.
	Dispatcher func(fn func())

	// Runtime is what an active scope runs tasks with.
	Runtime struct {
		// Pool bounds concurrently running tasks across all scopes. Nil means
		// unbounded.
		Pool *semaphore.Weighted
		// Dispatch delivers completion callbacks.
		Dispatch Dispatcher
		// Logger receives task failures.
		Logger *log.Logger
	}

	// Scope owns the background tasks and cleanups of one container. Tasks
	// launched before Activate are queued; Dispose cancels every task, waits
	// for them to return and then runs cleanups in reverse registration order.
	Scope struct {
		mu       sync.Mutex
		ctx      context.Context
		cancel   context.CancelFunc
		runtime  Runtime
		active   bool
		disposed bool
		pending  []pendingTask
		cleanups []func() error
		wg       sync.WaitGroup
	}

	pendingTask struct {
		name   string
		task   Task
		onDone func(error)
	}
)

func newScope() *Scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the scope is disposed.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Launch schedules task. onDone, when non-nil, receives the task's result
// through the dispatcher unless the scope was cancelled first. Launching on a
// disposed scope is a no-op.
func (s *Scope) Launch(name string, task Task, onDone func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	t := pendingTask{name: name, task: task, onDone: onDone}
	if !s.active {
		s.pending = append(s.pending, t)
		return
	}
	s.start(t)
}

// OnCleanup registers fn to run at disposal after every task has returned.
func (s *Scope) OnCleanup(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Active reports whether queued tasks have been started.
func (s *Scope) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scope) activate(rt Runtime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || s.disposed {
		return
	}
	if rt.Logger == nil {
		rt.Logger = log.Default()
	}
	s.runtime = rt
	s.active = true
	for _, t := range s.pending {
		s.start(t)
	}
	s.pending = nil
}

// start runs t on its own goroutine. Callers hold s.mu.
func (s *Scope) start(t pendingTask) {
	s.wg.Add(1)
	rt := s.runtime
	go func() {
		defer s.wg.Done()
		if rt.Pool != nil {
			if err := rt.Pool.Acquire(s.ctx, 1); err != nil {
				return
			}
			defer rt.Pool.Release(1)
		}
		err := t.task(s.ctx)
		if s.ctx.Err() != nil {
			// Cancellation is not a failure.
			return
		}
		if err != nil {
			rt.Logger.Error("task failed", "task", t.name, "err", err)
		}
		if t.onDone == nil {
			return
		}
		done := func() {
			if s.ctx.Err() == nil {
				t.onDone(err)
			}
		}
		if rt.Dispatch != nil {
			rt.Dispatch(done)
			return
		}
		done()
	}()
}

// Dispose cancels all tasks, waits for them and runs cleanups last-in
// first-out. Cleanup errors are joined. Calling Dispose again is a no-op.
func (s *Scope) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.pending = nil
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	var errs []error
	for _, fn := range slices.Backward(cleanups) {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
