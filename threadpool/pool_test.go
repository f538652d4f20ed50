package threadpool

import (
	"bytes"
	"errors"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/utoolkit/logging"
	"github.com/ygrebnov/utoolkit/metrics"
)

func newTestPool(t *testing.T, opts ...Option) *Pool {
	t.Helper()
	p, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(p.Shutdown)
	return p
}

// blockWorker occupies one worker until the returned release func is called.
// It returns once the blocking task has been dequeued.
func blockWorker(t *testing.T, p *Pool) (release func()) {
	t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	_, err := SubmitErr(p, func() error {
		close(started)
		<-gate
		return nil
	})
	require.NoError(t, err)
	<-started
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func TestPool_Squares(t *testing.T) {
	p := newTestPool(t, WithThreads(4))

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		f, err := Submit(p, Bind1(func(x int) int { return x * x }, i))
		require.NoError(t, err)
		futures = append(futures, f)
	}

	got := make([]int, 0, len(futures))
	for _, f := range futures {
		v, err := f.Get()
		require.NoError(t, err)
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, got)
}

func TestPool_MultipleArguments(t *testing.T) {
	p := newTestPool(t, WithThreads(2))
	add3 := func(a, b, c int) int { return a + b + c }

	f, err := Submit(p, Bind3(add3, 10, 20, 30))
	require.NoError(t, err)
	v, err := f.Get()
	require.NoError(t, err)
	require.Equal(t, 60, v)
}

func TestPool_FailingTasksKeepPoolHealthy(t *testing.T) {
	p := newTestPool(t, WithThreads(1))
	boom := errors.New("boom")

	tests := []struct {
		name    string
		task    Task[int]
		wantErr error
	}{
		{name: "returned error", task: TaskError[int](func() error { return boom }), wantErr: boom},
		{name: "panic with value", task: func() (int, error) { panic("kaboom") }, wantErr: ErrTaskPanicked},
		{name: "panic with error", task: func() (int, error) { panic(boom) }, wantErr: boom},
		{name: "nil pointer dereference", task: func() (int, error) {
			var m map[string]*int
			return *m["x"], nil
		}, wantErr: ErrTaskPanicked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Submit(p, tt.task)
			require.NoError(t, err)
			v, err := f.Get()
			require.ErrorIs(t, err, tt.wantErr)
			require.Zero(t, v)

			// the single worker survived and serves the next task
			ok, err := SubmitValue(p, func() string { return "ok" })
			require.NoError(t, err)
			s, err := ok.Get()
			require.NoError(t, err)
			require.Equal(t, "ok", s)
		})
	}
}

func TestPool_PanicErrorCarriesStack(t *testing.T) {
	p := newTestPool(t, WithThreads(1))

	f, err := Submit(p, func() (int, error) { panic("kaboom") })
	require.NoError(t, err)
	_, err = f.Get()

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, "threadpool: task execution panicked: kaboom", err.Error())
}

func TestPool_ShutdownTwice(t *testing.T) {
	p, err := New(WithThreads(3))
	require.NoError(t, err)
	require.Equal(t, Running, p.State())
	require.False(t, p.IsShutdown())

	before := p.ThreadCount()
	done := make(chan error, 1)
	go func() {
		p.Shutdown()
		p.Shutdown()
		done <- p.Close()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("repeated shutdown blocked")
	}
	require.Equal(t, before, p.ThreadCount())
	require.True(t, p.IsShutdown())
	require.Equal(t, Stopped, p.State())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := New(WithThreads(2))
	require.NoError(t, err)
	p.Shutdown()

	depth := p.TaskCount()
	f, err := Submit(p, TaskValue(func() int { return 1 }))
	require.ErrorIs(t, err, ErrPoolStopped)
	require.Nil(t, f)
	require.Equal(t, depth, p.TaskCount())

	_, err = SubmitErr(p, func() error { return nil })
	require.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	p, err := New(WithThreads(1))
	require.NoError(t, err)

	release := blockWorker(t, p)

	var ran atomic.Int32
	futures := make([]*Future[struct{}], 0, 5)
	for i := 0; i < 5; i++ {
		f, err := SubmitErr(p, func() error { ran.Add(1); return nil })
		require.NoError(t, err)
		futures = append(futures, f)
	}
	require.Equal(t, 5, p.TaskCount())

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()

	require.Eventually(t, p.IsShutdown, time.Second, time.Millisecond)
	require.Equal(t, Draining, p.State())
	_, err = SubmitErr(p, func() error { return nil })
	require.ErrorIs(t, err, ErrPoolStopped)

	select {
	case <-shutdownDone:
		t.Fatal("shutdown returned while a task was still running")
	default:
	}

	release()
	<-shutdownDone

	require.Equal(t, int32(5), ran.Load())
	for _, f := range futures {
		require.True(t, f.IsReady())
	}
	require.Equal(t, 0, p.TaskCount())
	require.Equal(t, Stopped, p.State())
}

func TestPool_ConcurrentSubmitAndShutdown(t *testing.T) {
	const (
		submitters = 8
		perWorker  = 200
	)
	p, err := New(WithThreads(4))
	require.NoError(t, err)

	runs := make([]atomic.Int32, submitters*perWorker)
	var (
		mu       sync.Mutex
		accepted []*Future[int]
		failures []error
		rejected atomic.Int32
		wg       sync.WaitGroup
		start    = make(chan struct{})
	)

	for s := 0; s < submitters; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			<-start
			for i := 0; i < perWorker; i++ {
				id := s*perWorker + i
				f, err := Submit(p, func() (int, error) {
					runs[id].Add(1)
					return id, nil
				})
				if err != nil {
					if !errors.Is(err, ErrPoolStopped) {
						mu.Lock()
						failures = append(failures, err)
						mu.Unlock()
					}
					runs[id].Store(-100) // never queued, must never run
					rejected.Add(1)
					continue
				}
				mu.Lock()
				accepted = append(accepted, f)
				mu.Unlock()
			}
		}(s)
	}

	close(start)
	time.Sleep(time.Millisecond)
	p.Shutdown()
	wg.Wait()

	require.Empty(t, failures, "submissions may only fail with ErrPoolStopped")
	for _, f := range accepted {
		require.True(t, f.IsReady(), "accepted task was dropped")
		id, err := f.Get()
		require.NoError(t, err)
		require.Equal(t, int32(1), runs[id].Load(), "task %d ran %d times", id, runs[id].Load())
	}
	for i := range runs {
		v := runs[i].Load()
		require.True(t, v == 1 || v == -100, "task %d has run count %d", i, v)
	}
	require.Equal(t, submitters*perWorker, len(accepted)+int(rejected.Load()))
}

func TestPool_DequeueOrderIsFIFO(t *testing.T) {
	p := newTestPool(t, WithThreads(1))
	release := blockWorker(t, p)

	var (
		mu    sync.Mutex
		order []int
	)
	futures := make([]*Future[struct{}], 0, 20)
	for i := 0; i < 20; i++ {
		f, err := SubmitErr(p, func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), f.Index())
		futures = append(futures, f)
	}
	release()

	for _, f := range futures {
		require.NoError(t, f.Err())
	}
	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, order)
}

func TestPool_TaskCount(t *testing.T) {
	p := newTestPool(t, WithThreads(1))
	release := blockWorker(t, p)
	defer release()

	require.Equal(t, 0, p.TaskCount())
	for i := 0; i < 3; i++ {
		_, err := SubmitErr(p, func() error { return nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, p.TaskCount())
}

func TestPool_BoundedQueue(t *testing.T) {
	p := newTestPool(t, WithThreads(1), WithMaxQueue(2))
	release := blockWorker(t, p)
	defer release()

	for i := 0; i < 2; i++ {
		_, err := SubmitErr(p, func() error { return nil })
		require.NoError(t, err)
	}
	f, err := SubmitErr(p, func() error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)
	require.Nil(t, f)
	require.Equal(t, 2, p.TaskCount())

	release()
	require.Eventually(t, func() bool { return p.TaskCount() == 0 }, time.Second, time.Millisecond)
	_, err = SubmitErr(p, func() error { return nil })
	require.NoError(t, err)
}

func TestPool_IndexNotConsumedByRejection(t *testing.T) {
	p := newTestPool(t, WithThreads(1), WithMaxQueue(1))
	release := blockWorker(t, p) // index 0
	defer release()

	f1, err := SubmitErr(p, func() error { return nil })
	require.NoError(t, err)
	_, err = SubmitErr(p, func() error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)
	release()
	require.NoError(t, f1.Err())

	f2, err := SubmitErr(p, func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, f1.Index()+1, f2.Index())
}

func TestPool_ThreadCountDefault(t *testing.T) {
	p := newTestPool(t)
	require.Equal(t, max(runtime.GOMAXPROCS(0), 1), p.ThreadCount())

	p0 := newTestPool(t, WithThreads(0))
	require.Equal(t, p.ThreadCount(), p0.ThreadCount())
}

func TestPool_NilTask(t *testing.T) {
	p := newTestPool(t, WithThreads(1))

	_, err := Submit[int](p, nil)
	require.ErrorIs(t, err, ErrNilTask)
	_, err = SubmitValue[int](p, nil)
	require.ErrorIs(t, err, ErrNilTask)
	_, err = SubmitErr(p, nil)
	require.ErrorIs(t, err, ErrNilTask)
	require.Equal(t, 0, p.TaskCount())
}

func TestPool_CloseInDefer(t *testing.T) {
	var ran atomic.Bool
	func() {
		p, err := New(WithThreads(1))
		require.NoError(t, err)
		defer p.Close()

		_, err = SubmitErr(p, func() error {
			time.Sleep(10 * time.Millisecond)
			ran.Store(true)
			return nil
		})
		require.NoError(t, err)
	}()
	require.True(t, ran.Load(), "Close must drain queued work")
}

func TestPool_Metrics(t *testing.T) {
	mp := metrics.NewBasicProvider()
	p, err := New(WithThreads(2), WithMetrics(mp), WithName("squares"))
	require.NoError(t, err)
	require.Equal(t, "squares", p.Name())

	for i := 0; i < 6; i++ {
		var task Task[int]
		switch {
		case i == 0:
			task = func() (int, error) { panic("x") }
		case i%2 == 1:
			task = TaskError[int](func() error { return errors.New("fail") })
		default:
			task = TaskValue(func() int { return i })
		}
		_, err := Submit(p, task)
		require.NoError(t, err)
	}
	p.Shutdown()
	_, err = SubmitErr(p, func() error { return nil })
	require.Error(t, err)

	values := map[string]int64{}
	for _, s := range mp.Snapshot() {
		values[s.Name] = s.Value
	}
	assert.Equal(t, int64(6), values["tasks_submitted_total"])
	assert.Equal(t, int64(1), values["tasks_rejected_total"])
	assert.Equal(t, int64(2), values["tasks_completed_total"])
	assert.Equal(t, int64(4), values["tasks_failed_total"])
	assert.Equal(t, int64(1), values["tasks_panicked_total"])
	assert.Equal(t, int64(0), values["queue_depth"])
	assert.Equal(t, int64(0), values["tasks_inflight"])
	assert.Equal(t, int64(0), values["workers_idle"])
	assert.Equal(t, int64(6), values["task_duration_seconds"])
	assert.Equal(t, int64(6), values["task_queue_wait_seconds"])
	assert.Equal(t, "Tasks queued and not yet started", mp.Description("queue_depth"))
}

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestPool_Logging(t *testing.T) {
	buf := &lockedBuffer{}
	log, err := logging.New(logging.Config{Level: "debug", Console: true, ConsoleWriter: buf})
	require.NoError(t, err)

	p, err := New(WithThreads(1), WithLogger(log), WithName("logged"))
	require.NoError(t, err)

	f, err := Submit(p, func() (int, error) { panic("kaboom") })
	require.NoError(t, err)
	_ = f.Err()
	f2, err := SubmitErr(p, func() error { return errors.New("plain failure") })
	require.NoError(t, err)
	_ = f2.Err()
	p.Shutdown()
	_, _ = SubmitErr(p, func() error { return nil })

	out := buf.String()
	assert.Contains(t, out, "[INFO] logged pool started")
	assert.Contains(t, out, "[ERROR] logged task panicked")
	assert.Contains(t, out, "[DEBUG] logged task failed")
	assert.Contains(t, out, "plain failure")
	assert.Contains(t, out, "[INFO] logged pool stopped")
	assert.Contains(t, out, "[WARN] logged task rejected")
	assert.False(t, strings.Contains(out, "[TRACE]"), "trace lines must be filtered at debug level")
}
