package threadpool

import (
	"context"
	"time"

	"github.com/ygrebnov/errorc"
)

// Future is the result handle of a submitted task. The result becomes visible
// once the task has finished; reading it is safe from any goroutine and may
// be repeated.
type Future[R any] struct {
	id    string
	index uint64
	done  chan struct{}

	// written once by the worker before done is closed
	value R
	err   error
}

func newFuture[R any](id string) *Future[R] {
	return &Future[R]{id: id, done: make(chan struct{})}
}

// fulfill stores the result and publishes it. Called exactly once.
func (f *Future[R]) fulfill(v R, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Get blocks until the task has finished and returns its result.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// Err blocks until the task has finished and returns its error.
func (f *Future[R]) Err() error {
	<-f.done
	return f.err
}

// GetContext is Get bounded by ctx. Giving up does not cancel the task.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetWithTimeout is Get bounded by d. It returns ErrFutureTimeout when d
// elapses first; the task keeps running.
func (f *Future[R]) GetWithTimeout(d time.Duration) (R, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero R
		return zero, errorc.With(ErrFutureTimeout, errorc.String("task", f.id))
	}
}

// Done returns a channel closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} { return f.done }

// IsReady reports whether the result is available without blocking.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// ID returns the unique identifier assigned at submission.
func (f *Future[R]) ID() string { return f.id }

// Index returns the submission sequence number within the pool, starting at 0.
func (f *Future[R]) Index() uint64 { return f.index }
