// Package metrics defines the instruments the thread pool records into and
// ships three providers: a no-op default, an in-memory BasicProvider for tests
// and command line summaries, and a PrometheusProvider.
package metrics

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use and must return the same
// instrument for repeated calls with the same name.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that can move up or down, such as queue depth.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements, typically seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static labels of the instrument. Keep cardinality bounded.
	Attributes map[string]string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the help text of the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets the unit of the instrument (e.g. "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes to the instrument.
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
