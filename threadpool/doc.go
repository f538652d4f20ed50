// Package threadpool runs heterogeneous tasks on a fixed set of worker
// goroutines and hands back typed futures for their results.
//
// Constructor
//   - New(opts ...Option) starts the workers immediately. No work is queued.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created pool:
//   - Threads: 0 (runtime.GOMAXPROCS(0), minimum 1)
//   - MaxQueue: 0 (unbounded)
//   - ErrorTagging: false
//   - Logger: no-op
//   - Metrics: no-op provider
//
// Submission
// Submit is a package level function because Go methods cannot declare type
// parameters:
//
//	f, err := threadpool.Submit(p, threadpool.Bind3(add3, 10, 20, 30))
//	sum, err := f.Get()
//
// Submit fails with ErrPoolStopped once shutdown has begun. A task that
// returns an error or panics resolves its Future with that failure; the
// worker that ran it keeps going.
//
// Shutdown
// Shutdown (or Close) stops accepting tasks, lets the workers drain the
// queue and joins them. Queued tasks are never discarded.
package threadpool
