// Package future runs a function in the background and lets the caller race
// its result against a timer.
package future

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Await when the timer fires before the future
// settles.
var ErrTimeout = errors.New("future: timed out")

// Future is the eventual result of a function started with Go.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	val  T
	err  error
}

// Go starts fn in its own goroutine. fn receives a context derived from ctx
// with cancellation detached: cancelling ctx does not stop fn, only Cancel
// does. Values carried by ctx (request ids, loggers) stay visible.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &Future[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer cancel()
		val, err := fn(runCtx)
		f.settle(val, err)
	}()
	return f
}

func (f *Future[T]) settle(val T, err error) {
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
	})
}

// Cancel cancels the context passed to fn. The future still settles with
// whatever fn returns.
func (f *Future[T]) Cancel() { f.cancel() }

// Result blocks until the future settles.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await waits for the future to settle, for timeout to elapse, or for ctx
// to be done, whichever happens first. On timeout it returns ErrTimeout and
// on ctx done it returns ctx.Err(); in both cases the future keeps running
// unless the caller calls Cancel. A non-positive timeout waits without a timer.
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-timer:
		var zero T
		return zero, ErrTimeout
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
