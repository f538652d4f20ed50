package threadpool

import (
	"runtime"
	"strings"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/utoolkit/logging"
	"github.com/ygrebnov/utoolkit/metrics"
)

// config holds Pool configuration.
type config struct {
	// Threads is the number of worker goroutines.
	// Zero (default) means runtime.GOMAXPROCS(0), never less than one.
	Threads uint

	// MaxQueue bounds the number of pending tasks. Submit fails with
	// ErrQueueFull once it is reached.
	// Default: 0 (unbounded)
	MaxQueue uint

	// ErrorTagging wraps task errors with the future's ID and submission index.
	// Default: false
	ErrorTagging bool

	// Name labels log lines and metrics.
	// Default: "threadpool"
	Name string

	Logger  *logging.Logger
	Metrics metrics.Provider
}

func defaultConfig() config {
	return config{
		Threads:      0,
		MaxQueue:     0,
		ErrorTagging: false,
		Name:         Namespace,
		Logger:       logging.NewNop(),
		Metrics:      metrics.NewNoopProvider(),
	}
}

// threadCount resolves the configured thread count.
func (c *config) threadCount() int {
	if c.Threads > 0 {
		return int(c.Threads)
	}
	return max(runtime.GOMAXPROCS(0), 1)
}

// Option configures a Pool. Options return an error on invalid input.
type Option func(*config) error

// WithThreads sets the number of worker goroutines. Zero selects runtime.GOMAXPROCS(0).
func WithThreads(n uint) Option {
	return func(cfg *config) error { cfg.Threads = n; return nil }
}

// WithMaxQueue bounds the number of queued, not yet started tasks (must be > 0).
func WithMaxQueue(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMaxQueue requires n > 0"))
		}
		cfg.MaxQueue = n
		return nil
	}
}

// WithErrorTagging enables wrapping task errors with task metadata (ID and index).
func WithErrorTagging() Option {
	return func(cfg *config) error { cfg.ErrorTagging = true; return nil }
}

// WithName sets the name used in log lines and as the "pool" metrics attribute.
func WithName(name string) Option {
	return func(cfg *config) error {
		if strings.TrimSpace(name) == "" {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithName requires a non-empty name"))
		}
		cfg.Name = name
		return nil
	}
}

// WithLogger sets the logger receiving pool diagnostics. nil disables logging.
func WithLogger(l *logging.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			l = logging.NewNop()
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider. nil selects the no-op provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			p = metrics.NewNoopProvider()
		}
		cfg.Metrics = p
		return nil
	}
}
