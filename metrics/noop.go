package metrics

// NoopProvider discards every measurement. It is the pool's default provider.
type NoopProvider struct{}

// NewNoopProvider returns a Provider that records nothing.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(string, ...InstrumentOption) Counter             { return noop{} }
func (NoopProvider) UpDownCounter(string, ...InstrumentOption) UpDownCounter { return noop{} }
func (NoopProvider) Histogram(string, ...InstrumentOption) Histogram         { return noop{} }

type noop struct{}

func (noop) Add(int64)      {}
func (noop) Record(float64) {}
