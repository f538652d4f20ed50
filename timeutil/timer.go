package timeutil

import (
	"sync"
	"time"
)

// NowFunc returns the current time. Tests substitute a fake clock.
type NowFunc func() time.Time

// Timer is a stopwatch. The zero value is a stopped timer reading zero.
// It is safe for concurrent use.
type Timer struct {
	now NowFunc

	mu      sync.Mutex
	start   time.Time
	end     time.Time
	running bool
}

// NewTimer returns a stopped Timer using now as its clock; nil means time.Now.
func NewTimer(now NowFunc) *Timer {
	return &Timer{now: now}
}

func (t *Timer) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

// Start (re)starts the timer from zero.
func (t *Timer) Start() {
	t.mu.Lock()
	t.start = t.clock()
	t.end = time.Time{}
	t.running = true
	t.mu.Unlock()
}

// Stop freezes the elapsed time. Stopping a stopped timer has no effect.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.running {
		t.end = t.clock()
		t.running = false
	}
	t.mu.Unlock()
}

// Reset stops the timer and sets the elapsed time to zero.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.start, t.end = time.Time{}, time.Time{}
	t.running = false
	t.mu.Unlock()
}

// Running reports whether the timer is started and not stopped.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the time since Start, or between Start and Stop once stopped.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return t.clock().Sub(t.start)
	}
	return t.end.Sub(t.start)
}

// ElapsedString returns Elapsed formatted by FormatDuration.
func (t *Timer) ElapsedString() string { return FormatDuration(t.Elapsed()) }
