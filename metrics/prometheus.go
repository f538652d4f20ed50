package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider exposes instruments as Prometheus collectors registered
// on a caller supplied Registerer. Counters map to prometheus.Counter,
// up/down counters to prometheus.Gauge and histograms to prometheus.Histogram.
type PrometheusProvider struct {
	registerer  prometheus.Registerer
	namespace   string
	constLabels prometheus.Labels

	mu         sync.Mutex
	collectors map[string]any
	errs       []error
}

// NewPrometheusProvider returns a provider registering into reg under the
// given namespace. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusProvider(reg prometheus.Registerer, namespace string, constLabels map[string]string) *PrometheusProvider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusProvider{
		registerer:  reg,
		namespace:   namespace,
		constLabels: constLabels,
		collectors:  make(map[string]any),
	}
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return getOrRegister(p, name, opts, func(o prometheus.Opts) promCounter {
		return promCounter{prometheus.NewCounter(prometheus.CounterOpts(o))}
	})
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return getOrRegister(p, name, opts, func(o prometheus.Opts) promGauge {
		return promGauge{prometheus.NewGauge(prometheus.GaugeOpts(o))}
	})
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return getOrRegister(p, name, opts, func(o prometheus.Opts) promHistogram {
		return promHistogram{prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   o.Namespace,
			Name:        o.Name,
			Help:        o.Help,
			ConstLabels: o.ConstLabels,
			Buckets:     prometheus.DefBuckets,
		})}
	})
}

type collector interface {
	prometheus.Collector
}

func getOrRegister[C collector](p *PrometheusProvider, name string, opts []InstrumentOption, newFn func(prometheus.Opts) C) C {
	cfg := applyOptions(opts)
	labels := prometheus.Labels{}
	for k, v := range p.constLabels {
		labels[k] = v
	}
	for k, v := range cfg.Attributes {
		labels[k] = v
	}
	key := collectorKey(name, labels)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.collectors[key].(C); ok {
		return c
	}

	help := cfg.Description
	if help == "" {
		help = name
	}

	c := newFn(prometheus.Opts{
		Namespace:   p.namespace,
		Name:        sanitize(name),
		Help:        help,
		ConstLabels: labels,
	})
	if err := p.registerer.Register(c); err != nil {
		if existing, ok := alreadyRegistered[C](err); ok {
			c = existing
		} else {
			p.errs = append(p.errs, fmt.Errorf("metrics: registering %s: %w", key, err))
		}
	}
	p.collectors[key] = c
	return c
}

// Err returns every registration failure seen so far, joined. Instruments
// whose registration failed still accept values but are never exported.
func (p *PrometheusProvider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// collectorKey identifies an instrument by name and its sorted label pairs.
func collectorKey(name string, labels prometheus.Labels) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// alreadyRegistered returns the collector registered earlier under the same
// descriptor, typically by another provider sharing the registry.
func alreadyRegistered[C collector](err error) (C, bool) {
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		var zero C
		return zero, false
	}
	return wrapExisting[C](are.ExistingCollector)
}

func wrapExisting[C collector](existing prometheus.Collector) (C, bool) {
	var zero C
	if c, ok := existing.(C); ok {
		return c, true
	}
	var out any
	// a Gauge also satisfies prometheus.Counter, so it is matched first
	switch e := existing.(type) {
	case prometheus.Gauge:
		out = promGauge{e}
	case prometheus.Histogram:
		out = promHistogram{e}
	case prometheus.Counter:
		out = promCounter{e}
	}
	c, ok := out.(C)
	if !ok {
		return zero, false
	}
	return c, true
}

// sanitize maps characters Prometheus rejects in metric names to underscores.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, name)
}

type promCounter struct{ prometheus.Counter }

func (c promCounter) Add(n int64) {
	if n > 0 {
		c.Counter.Add(float64(n))
	}
}

type promGauge struct{ prometheus.Gauge }

func (g promGauge) Add(n int64) { g.Gauge.Add(float64(n)) }

type promHistogram struct{ prometheus.Histogram }

func (h promHistogram) Record(v float64) { h.Observe(v) }
