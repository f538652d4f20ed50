package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// BasicProvider is an in-memory Provider backed by atomics.
// Instruments are created on first use and reused for the same name.
type BasicProvider struct {
	mu         sync.RWMutex
	counters   map[string]*BasicCounter
	updowns    map[string]*BasicUpDownCounter
	histograms map[string]*BasicHistogram
	meta       map[string]InstrumentConfig
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   make(map[string]*BasicCounter),
		updowns:    make(map[string]*BasicUpDownCounter),
		histograms: make(map[string]*BasicHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

// lookup returns m[name], creating it with newFn under the write lock if absent.
func lookup[I any](p *BasicProvider, m map[string]I, name string, opts []InstrumentOption, newFn func() I) I {
	p.mu.RLock()
	inst, ok := m[name]
	p.mu.RUnlock()
	if ok {
		return inst
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if inst, ok = m[name]; ok {
		return inst
	}
	p.meta[name] = applyOptions(opts)
	inst = newFn()
	m[name] = inst
	return inst
}

func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return lookup(p, p.counters, name, opts, func() *BasicCounter { return &BasicCounter{} })
}

func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return lookup(p, p.updowns, name, opts, func() *BasicUpDownCounter { return &BasicUpDownCounter{} })
}

func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return lookup(p, p.histograms, name, opts, func() *BasicHistogram { return &BasicHistogram{} })
}

// Description returns the description an instrument was registered with.
func (p *BasicProvider) Description(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta[name].Description
}

// Sample is the value of one instrument at snapshot time.
type Sample struct {
	Name  string
	Kind  string // counter, updown or histogram
	Value int64
	Hist  HistSnapshot
}

// Snapshot returns every instrument sorted by name.
func (p *BasicProvider) Snapshot() []Sample {
	p.mu.RLock()
	out := make([]Sample, 0, len(p.counters)+len(p.updowns)+len(p.histograms))
	for name, c := range p.counters {
		out = append(out, Sample{Name: name, Kind: "counter", Value: c.Snapshot()})
	}
	for name, u := range p.updowns {
		out = append(out, Sample{Name: name, Kind: "updown", Value: u.Snapshot()})
	}
	for name, h := range p.histograms {
		hs := h.Snapshot()
		out = append(out, Sample{Name: name, Kind: "histogram", Value: hs.Count, Hist: hs})
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BasicCounter is a monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a counter that may decrease.
type BasicUpDownCounter struct {
	val atomic.Int64
}

func (u *BasicUpDownCounter) Add(n int64) { u.val.Add(n) }

// Snapshot returns the current value.
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
	h.mu.Unlock()
}

// HistSnapshot is an immutable copy of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns the histogram state at the time of the call.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
