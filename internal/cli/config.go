package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ygrebnov/utoolkit/logging"
)

// EnvPrefix prefixes every environment variable read by the command line,
// e.g. UTOOLKIT_POOL_THREADS.
const EnvPrefix = "UTOOLKIT"

// Config is the merged configuration of the utoolkit binary.
type Config struct {
	Log     logging.Config `mapstructure:"log"`
	Pool    PoolConfig     `mapstructure:"pool"`
	Run     RunConfig      `mapstructure:"run"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

type PoolConfig struct {
	Name         string `mapstructure:"name" default:"utoolkit"`
	Threads      uint   `mapstructure:"threads"`
	MaxQueue     uint   `mapstructure:"max_queue"`
	ErrorTagging bool   `mapstructure:"error_tagging" default:"true"`
}

type RunConfig struct {
	// Tasks is the number of square computations submitted.
	Tasks int `mapstructure:"tasks" default:"100"`
	// Submitters is the number of goroutines submitting concurrently.
	Submitters int `mapstructure:"submitters" default:"4"`
	// Rate caps submissions per second across all submitters. Zero is unlimited.
	Rate float64 `mapstructure:"rate"`
	// FailEvery makes the first attempt of every n-th task fail. Zero disables.
	FailEvery int `mapstructure:"fail_every"`
	// Retries is how many times a failed task is resubmitted.
	Retries uint `mapstructure:"retries" default:"3"`
	// Work is the simulated duration of each task.
	Work time.Duration `mapstructure:"work" default:"1ms"`
	// Progress shows a progress bar on stderr.
	Progress bool `mapstructure:"progress" default:"true"`
}

type MetricsConfig struct {
	// Addr, when set, serves Prometheus metrics on http://Addr/metrics.
	Addr string `mapstructure:"addr"`
}

func (c *Config) validate() error {
	switch {
	case c.Run.Tasks < 0:
		return fmt.Errorf("%w: tasks must not be negative", ErrInvalidConfig)
	case c.Run.Submitters < 1:
		return fmt.Errorf("%w: submitters must be at least 1", ErrInvalidConfig)
	case c.Run.Rate < 0:
		return fmt.Errorf("%w: rate must not be negative", ErrInvalidConfig)
	case c.Run.FailEvery < 0:
		return fmt.Errorf("%w: fail-every must not be negative", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-file":      "log.file",
	"log-color":     "log.color",
	"threads":       "pool.threads",
	"max-queue":     "pool.max_queue",
	"tasks":         "run.tasks",
	"submitters":    "run.submitters",
	"rate":          "run.rate",
	"fail-every":    "run.fail_every",
	"retries":       "run.retries",
	"work":          "run.work",
	"progress":      "run.progress",
	"metrics-addr":  "metrics.addr",
	"error-tagging": "pool.error_tagging",
}

// configDefaults lists every configuration key with its default. Viper reads
// environment variables and unmarshals only keys it knows, so keys without a
// flag must be registered here.
func configDefaults(d Config) map[string]any {
	return map[string]any{
		"log.level":          d.Log.Level,
		"log.console":        d.Log.Console,
		"log.file":           d.Log.File,
		"log.color":          d.Log.Color,
		"log.add_source":     d.Log.AddSource,
		"pool.name":          d.Pool.Name,
		"pool.threads":       d.Pool.Threads,
		"pool.max_queue":     d.Pool.MaxQueue,
		"pool.error_tagging": d.Pool.ErrorTagging,
		"run.tasks":          d.Run.Tasks,
		"run.submitters":     d.Run.Submitters,
		"run.rate":           d.Run.Rate,
		"run.fail_every":     d.Run.FailEvery,
		"run.retries":        d.Run.Retries,
		"run.work":           d.Run.Work,
		"run.progress":       d.Run.Progress,
		"metrics.addr":       d.Metrics.Addr,
	}
}

// defaultConfig returns a Config populated from its default tags.
func defaultConfig() (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadConfig merges, from lowest to highest precedence, struct defaults,
// the optional config file, UTOOLKIT_* environment variables and explicitly
// set flags.
func loadConfig(flags *pflag.FlagSet, configFile string) (Config, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range configDefaults(cfg) {
		v.SetDefault(key, value)
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, err
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, configFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.validate()
}
