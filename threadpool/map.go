package threadpool

import (
	"context"
	"errors"
)

// Map submits fn(v) for every element of in, in order. It stops at the first
// submission failure and returns the futures submitted so far alongside the
// error; those futures still resolve.
func Map[T, R any](p *Pool, in []T, fn func(T) (R, error)) ([]*Future[R], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	futures := make([]*Future[R], 0, len(in))
	for _, v := range in {
		f, err := Submit(p, Bind1E(fn, v))
		if err != nil {
			return futures, err
		}
		futures = append(futures, f)
	}
	return futures, nil
}

// Results waits for every future and returns the values in input order.
// Failed tasks leave the zero value in their slot; their errors are joined.
func Results[R any](ctx context.Context, futures []*Future[R]) ([]R, error) {
	out := make([]R, len(futures))
	var errs []error
	for i, f := range futures {
		v, err := f.GetContext(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			errs = append(errs, err)
			continue
		}
		out[i] = v
	}
	return out, errors.Join(errs...)
}

// Awaitable is satisfied by every *Future, whatever its result type.
type Awaitable interface {
	Done() <-chan struct{}
	Err() error
}

// WaitAll blocks until every future has resolved or ctx is done. It returns
// ctx.Err() when ctx ends first, otherwise the task errors joined with errors.Join
// (nil if every task succeeded).
func WaitAll(ctx context.Context, futures ...Awaitable) error {
	var errs []error
	for _, f := range futures {
		select {
		case <-f.Done():
			if err := f.Err(); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}
