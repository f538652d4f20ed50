package threadpool

import "errors"

const Namespace = "threadpool"

var (
	ErrPoolStopped   = errors.New(Namespace + ": pool is stopped")
	ErrQueueFull     = errors.New(Namespace + ": task queue is full")
	ErrTaskPanicked  = errors.New(Namespace + ": task execution panicked")
	ErrNilTask       = errors.New(Namespace + ": nil task")
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrFutureTimeout = errors.New(Namespace + ": timed out waiting for task result")
)
