package threadpool

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/utoolkit/logging"
	"github.com/ygrebnov/utoolkit/queue"
)

// Pool runs submitted tasks on a fixed set of worker goroutines.
// Tasks are dequeued in submission order; completion order across workers is
// not guaranteed. All methods are safe for concurrent use.
//
// A Pool must be shut down with Shutdown or Close. Shutdown must not be
// called from inside a task running on the same pool.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	name      string
	threads   int
	tagErrors bool
	log       *logging.Logger
	ins       instruments

	// mu guards queue, stopping and seq; cond is signalled on push and broadcast on shutdown.
	mu       sync.Mutex
	cond     *sync.Cond
	queue    queue.Queue[entry]
	stopping bool
	seq      uint64

	state        atomic.Int32
	workers      sync.WaitGroup
	shutdownOnce sync.Once
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// entry is one queued invoke-and-fulfill unit. run executes the task and
// delivers its result; it never panics.
type entry interface {
	run()
}

// New creates a Pool and starts its workers.
func New(opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Pool{
		name:      cfg.Name,
		threads:   cfg.threadCount(),
		tagErrors: cfg.ErrorTagging,
		log:       cfg.Logger.Named(cfg.Name),
		ins:       newInstruments(cfg.Metrics, cfg.Name),
	}
	p.cond = sync.NewCond(&p.mu)
	if cfg.MaxQueue > 0 {
		p.queue = queue.NewBounded[entry](cfg.MaxQueue)
	} else {
		p.queue = queue.NewUnbounded[entry](0)
	}

	p.workers.Add(p.threads)
	for i := 0; i < p.threads; i++ {
		go p.worker(i)
	}

	p.log.Info("pool started",
		zap.Int("threads", p.threads),
		zap.Uint("max_queue", cfg.MaxQueue),
		zap.Bool("error_tagging", cfg.ErrorTagging),
	)
	return p, nil
}

// worker dequeues and runs entries until the pool is stopping and the queue is empty.
func (p *Pool) worker(id int) {
	defer p.workers.Done()
	p.log.Trace("worker started", zap.Int("worker", id))

	for {
		p.mu.Lock()
		for p.queue.Len() == 0 && !p.stopping {
			p.ins.idle.Add(1)
			p.cond.Wait()
			p.ins.idle.Add(-1)
		}
		e, ok := p.queue.Pop()
		p.mu.Unlock()

		if !ok {
			// stopping and drained
			p.log.Trace("worker exiting", zap.Int("worker", id))
			return
		}
		p.ins.depth.Add(-1)
		e.run()
	}
}

// Submit queues t for execution and returns its Future.
//
// It fails without queuing with ErrPoolStopped once shutdown has begun, with
// ErrQueueFull when a bounded queue is at capacity, and with ErrNilTask for a
// nil task. Failures of the task itself are delivered through the Future.
func Submit[R any](p *Pool, t Task[R]) (*Future[R], error) {
	if t == nil {
		return nil, errorc.With(ErrNilTask, errorc.String("pool", p.name))
	}

	f := newFuture[R](uuid.NewString())
	j := &job[R]{pool: p, task: t, future: f}

	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return nil, p.reject(ErrPoolStopped)
	}
	f.index = p.seq
	j.enqueued = time.Now()
	if !p.queue.Push(j) {
		p.mu.Unlock()
		return nil, p.reject(ErrQueueFull)
	}
	p.seq++
	// recorded before a worker can dequeue, so queue_depth never goes negative
	p.ins.depth.Add(1)
	p.mu.Unlock()

	p.cond.Signal()

	p.ins.submitted.Add(1)
	p.log.Trace("task submitted", zap.String("task", f.id), zap.Uint64("index", f.index))
	return f, nil
}

// SubmitValue submits a task that cannot fail.
func SubmitValue[R any](p *Pool, fn func() R) (*Future[R], error) {
	return Submit(p, TaskValue(fn))
}

// SubmitErr submits a task that produces only an error.
func SubmitErr(p *Pool, fn func() error) (*Future[struct{}], error) {
	return Submit(p, TaskError[struct{}](fn))
}

func (p *Pool) reject(cause error) error {
	p.ins.rejected.Add(1)
	p.log.Warn("task rejected", zap.Error(cause))
	return errorc.With(cause, errorc.String("pool", p.name))
}

// Shutdown stops accepting tasks, lets the workers drain every queued task
// and waits for them to exit. It is idempotent; concurrent callers all return
// once the workers have been joined.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.stopping = true
		pending := p.queue.Len()
		p.state.Store(int32(Draining))
		p.mu.Unlock()

		p.log.Info("pool shutting down", zap.Int("pending", pending))
		p.cond.Broadcast()
		p.workers.Wait()

		p.state.Store(int32(Stopped))
		p.log.Info("pool stopped")
	})
}

// Close performs Shutdown and always returns nil. It lets a Pool be released
// with defer or through io.Closer.
func (p *Pool) Close() error {
	p.Shutdown()
	return nil
}

// ThreadCount returns the number of workers. It never changes, including after shutdown.
func (p *Pool) ThreadCount() int { return p.threads }

// TaskCount returns the number of queued tasks not yet picked up by a worker.
// The value is a snapshot and may be stale by the time it is read.
func (p *Pool) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// IsShutdown reports whether shutdown has begun.
func (p *Pool) IsShutdown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopping
}

// State returns the lifecycle stage of the pool.
func (p *Pool) State() State { return State(p.state.Load()) }

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// job binds a task to the Future it fulfils.
type job[R any] struct {
	pool     *Pool
	task     Task[R]
	future   *Future[R]
	enqueued time.Time
}

func (j *job[R]) run() {
	p := j.pool
	start := time.Now()
	p.ins.queueWait.Record(start.Sub(j.enqueued).Seconds())
	p.ins.inflight.Add(1)

	v, err := execTask(j.task)

	p.ins.duration.Record(time.Since(start).Seconds())
	p.ins.inflight.Add(-1)

	if err != nil {
		p.recordFailure(j.future.id, j.future.index, err)
		if p.tagErrors {
			err = p.tag(err, j.future.id, j.future.index)
		}
	} else {
		p.ins.completed.Add(1)
	}

	j.future.fulfill(v, err)
}

func (p *Pool) recordFailure(id string, index uint64, err error) {
	p.ins.failed.Add(1)

	var pe *PanicError
	if errors.As(err, &pe) {
		p.ins.panicked.Add(1)
		p.log.Error("task panicked",
			zap.String("task", id),
			zap.Uint64("index", index),
			zap.Any("panic", pe.Value),
		)
		p.log.Debug("task panic stack", zap.String("task", id), zap.ByteString("stack", pe.Stack))
		return
	}
	p.log.Debug("task failed", zap.String("task", id), zap.Uint64("index", index), zap.Error(err))
}
