package threadpool

import (
	"fmt"
	"runtime/debug"
)

// Task is the canonical unit of work: a zero-argument function producing a
// value of type R or an error. Arguments are captured by the closure, or bound
// by value with Bind1, Bind2 and Bind3.
//
// Use TaskFunc / TaskValue / TaskError to adapt common function signatures.
type Task[R any] func() (R, error)

// TaskFunc adapts func() (R, error) to Task[R].
func TaskFunc[R any](fn func() (R, error)) Task[R] { return Task[R](fn) }

// TaskValue adapts func() R to Task[R].
func TaskValue[R any](fn func() R) Task[R] {
	if fn == nil {
		return nil
	}
	return func() (R, error) { return fn(), nil }
}

// TaskError adapts func() error to Task[R].
// The returned Task yields the zero value of R alongside the error.
func TaskError[R any](fn func() error) Task[R] {
	if fn == nil {
		return nil
	}
	return func() (R, error) {
		var zero R
		return zero, fn()
	}
}

// Bind1 captures a at bind time and returns a Task calling fn(a).
func Bind1[A, R any](fn func(A) R, a A) Task[R] {
	return func() (R, error) { return fn(a), nil }
}

// Bind2 captures a and b at bind time and returns a Task calling fn(a, b).
func Bind2[A, B, R any](fn func(A, B) R, a A, b B) Task[R] {
	return func() (R, error) { return fn(a, b), nil }
}

// Bind3 captures a, b and c at bind time and returns a Task calling fn(a, b, c).
func Bind3[A, B, C, R any](fn func(A, B, C) R, a A, b B, c C) Task[R] {
	return func() (R, error) { return fn(a, b, c), nil }
}

// Bind1E is Bind1 for functions that also return an error.
func Bind1E[A, R any](fn func(A) (R, error), a A) Task[R] {
	return func() (R, error) { return fn(a) }
}

// Bind2E is Bind2 for functions that also return an error.
func Bind2E[A, B, R any](fn func(A, B) (R, error), a A, b B) Task[R] {
	return func() (R, error) { return fn(a, b) }
}

// Bind3E is Bind3 for functions that also return an error.
func Bind3E[A, B, C, R any](fn func(A, B, C) (R, error), a A, b B, c C) Task[R] {
	return func() (R, error) { return fn(a, b, c) }
}

// PanicError is stored in a Future when its task panics.
// errors.Is(err, ErrTaskPanicked) reports true; when the panic value is an
// error, errors.Is and errors.As also see through to it.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTaskPanicked.Error(), e.Value)
}

func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanicked, err}
	}
	return []error{ErrTaskPanicked}
}

// execTask runs t on the calling goroutine, converting a panic into a *PanicError.
func execTask[R any](t Task[R]) (result R, err error) {
	defer func() {
		if v := recover(); v != nil {
			var zero R
			result, err = zero, &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return t()
}
