package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ygrebnov/utoolkit/fileutil"
	"github.com/ygrebnov/utoolkit/logging"
	"github.com/ygrebnov/utoolkit/metrics"
	"github.com/ygrebnov/utoolkit/threadpool"
	"github.com/ygrebnov/utoolkit/timeutil"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Square integers on a worker pool and print a summary",
		Long: `run submits --tasks square computations from --submitters goroutines,
optionally throttled by --rate. With --fail-every n the first attempt of every
n-th task fails and is resubmitted with exponential backoff up to --retries times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	def, err := defaultConfig()
	if err != nil {
		panic(err)
	}
	f := cmd.Flags()
	f.String("log-level", def.Log.Level, "log level: trace, debug, info, warn, error or fatal")
	f.String("log-file", def.Log.File, "append log lines to this file")
	f.Bool("log-color", def.Log.Color, "colour console log levels")
	f.Uint("threads", def.Pool.Threads, "worker count, 0 for GOMAXPROCS")
	f.Uint("max-queue", def.Pool.MaxQueue, "bound on queued tasks, 0 for unbounded")
	f.Bool("error-tagging", def.Pool.ErrorTagging, "tag task errors with task id and index")
	f.Int("tasks", def.Run.Tasks, "number of tasks to submit")
	f.Int("submitters", def.Run.Submitters, "number of concurrent submitting goroutines")
	f.Float64("rate", def.Run.Rate, "maximum submissions per second, 0 for unlimited")
	f.Int("fail-every", def.Run.FailEvery, "fail the first attempt of every n-th task, 0 to disable")
	f.Uint("retries", def.Run.Retries, "resubmissions of a failed task")
	f.Duration("work", def.Run.Work, "simulated duration of each task")
	f.Bool("progress", def.Run.Progress, "show a progress bar on stderr")
	f.String("metrics-addr", def.Metrics.Addr, "serve Prometheus metrics on this address")
	return cmd
}

// outcome aggregates per-task results across submitters.
type outcome struct {
	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	retries   atomic.Int64
	sum       atomic.Int64
	elapsed   time.Duration
}

// execute owns the logger, metrics and pool for one run and releases them on every path.
func execute(ctx context.Context, cfg Config, out, errOut io.Writer) (err error) {
	if cfg.Log.File != "" {
		if err := fileutil.CreateDirs(fileutil.Dir(cfg.Log.File)); err != nil {
			return err
		}
	}
	if cfg.Log.ConsoleWriter == nil {
		cfg.Log.ConsoleWriter = errOut
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, log.Close()) }()

	summary := metrics.NewBasicProvider()
	provider := metrics.Provider(summary)
	var prom *metrics.PrometheusProvider
	if cfg.Metrics.Addr != "" {
		reg := newRegistry()
		stop, err := serveMetrics(cfg.Metrics.Addr, reg, log)
		if err != nil {
			return err
		}
		defer stop()
		prom = metrics.NewPrometheusProvider(reg, "utoolkit", nil)
		provider = metrics.Tee(summary, prom)
	}

	opts := []threadpool.Option{
		threadpool.WithName(cfg.Pool.Name),
		threadpool.WithThreads(cfg.Pool.Threads),
		threadpool.WithLogger(log),
		threadpool.WithMetrics(provider),
	}
	if cfg.Pool.MaxQueue > 0 {
		opts = append(opts, threadpool.WithMaxQueue(cfg.Pool.MaxQueue))
	}
	if cfg.Pool.ErrorTagging {
		opts = append(opts, threadpool.WithErrorTagging())
	}
	pool, err := threadpool.New(opts...)
	if err != nil {
		return err
	}
	defer pool.Close()
	if prom != nil {
		if err := prom.Err(); err != nil {
			return err
		}
	}

	res, runErr := drive(ctx, pool, cfg.Run, log, errOut)
	pool.Shutdown()

	if err := renderSummary(out, pool, cfg.Run, res, summary.Snapshot()); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	if n := res.failed.Load(); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTasksFailed, n, cfg.Run.Tasks)
	}
	return nil
}

// drive submits every task and waits for all of them to resolve.
func drive(ctx context.Context, p *threadpool.Pool, rc RunConfig, log *logging.Logger, errOut io.Writer) (*outcome, error) {
	res := &outcome{}
	timer := timeutil.NewTimer(nil)
	timer.Start()

	limit := rate.Inf
	if rc.Rate > 0 {
		limit = rate.Limit(rc.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	bar := progressbar.NewOptions(rc.Tasks,
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSetDescription("squaring"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(rc.Progress),
	)

	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < rc.Submitters; s++ {
		g.Go(func() error {
			for i := s; i < rc.Tasks; i += rc.Submitters {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				res.submitted.Add(1)
				v, err := square(gctx, p, i, rc, res, log)
				switch {
				case err == nil:
					res.succeeded.Add(1)
					res.sum.Add(v)
				case gctx.Err() != nil:
					return gctx.Err()
				case errors.Is(err, threadpool.ErrPoolStopped):
					return err
				default:
					res.failed.Add(1)
					log.Warn("task failed", zap.Int("task", i), zap.Error(err))
				}
				_ = bar.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	_ = bar.Finish()

	timer.Stop()
	res.elapsed = timer.Elapsed()
	return res, err
}

// square computes i*i on the pool. Failed attempts are resubmitted with
// exponential backoff; the pool itself never retries.
func square(ctx context.Context, p *threadpool.Pool, i int, rc RunConfig, res *outcome, log *logging.Logger) (int64, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond

	attempt := 0
	op := func() (int64, error) {
		n := attempt
		attempt++
		f, err := threadpool.Submit(p, func() (int64, error) {
			if rc.Work > 0 {
				time.Sleep(rc.Work)
			}
			if rc.FailEvery > 0 && (i+1)%rc.FailEvery == 0 && n == 0 {
				return 0, errTransient
			}
			return int64(i) * int64(i), nil
		})
		switch {
		case errors.Is(err, threadpool.ErrQueueFull):
			return 0, err
		case err != nil:
			return 0, backoff.Permanent(err)
		}
		return f.GetContext(ctx)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(rc.Retries+1),
		backoff.WithNotify(func(err error, d time.Duration) {
			res.retries.Add(1)
			log.Debug("resubmitting task", zap.Int("task", i), zap.Duration("after", d), zap.Error(err))
		}),
	)
}
