package metrics

// Tee returns a Provider recording every measurement into all of providers.
// nil providers are skipped.
func Tee(providers ...Provider) Provider {
	ps := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	switch len(ps) {
	case 0:
		return NewNoopProvider()
	case 1:
		return ps[0]
	}
	return tee(ps)
}

type tee []Provider

func (t tee) Counter(name string, opts ...InstrumentOption) Counter {
	out := make(adders, len(t))
	for i, p := range t {
		out[i] = p.Counter(name, opts...)
	}
	return out
}

func (t tee) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	out := make(adders, len(t))
	for i, p := range t {
		out[i] = p.UpDownCounter(name, opts...)
	}
	return out
}

func (t tee) Histogram(name string, opts ...InstrumentOption) Histogram {
	out := make(recorders, len(t))
	for i, p := range t {
		out[i] = p.Histogram(name, opts...)
	}
	return out
}

type adders []interface{ Add(int64) }

func (a adders) Add(n int64) {
	for _, c := range a {
		c.Add(n)
	}
}

type recorders []Histogram

func (r recorders) Record(v float64) {
	for _, h := range r {
		h.Record(v)
	}
}
