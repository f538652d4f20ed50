package threadpool

import "github.com/ygrebnov/utoolkit/metrics"

// instruments groups the metrics a Pool records.
type instruments struct {
	submitted metrics.Counter
	rejected  metrics.Counter
	completed metrics.Counter
	failed    metrics.Counter
	panicked  metrics.Counter

	depth    metrics.UpDownCounter
	inflight metrics.UpDownCounter
	idle     metrics.UpDownCounter

	duration  metrics.Histogram
	queueWait metrics.Histogram
}

func newInstruments(p metrics.Provider, pool string) instruments {
	attrs := metrics.WithAttributes(map[string]string{"pool": pool})
	return instruments{
		submitted: p.Counter("tasks_submitted_total", attrs, metrics.WithDescription("Tasks accepted by Submit")),
		rejected:  p.Counter("tasks_rejected_total", attrs, metrics.WithDescription("Submissions refused because the pool was stopped or full")),
		completed: p.Counter("tasks_completed_total", attrs, metrics.WithDescription("Tasks that returned without error")),
		failed:    p.Counter("tasks_failed_total", attrs, metrics.WithDescription("Tasks that returned an error or panicked")),
		panicked:  p.Counter("tasks_panicked_total", attrs, metrics.WithDescription("Tasks that panicked")),

		depth:    p.UpDownCounter("queue_depth", attrs, metrics.WithDescription("Tasks queued and not yet started")),
		inflight: p.UpDownCounter("tasks_inflight", attrs, metrics.WithDescription("Tasks currently executing")),
		idle:     p.UpDownCounter("workers_idle", attrs, metrics.WithDescription("Workers waiting for a task")),

		duration: p.Histogram("task_duration_seconds", attrs,
			metrics.WithDescription("Task execution time"), metrics.WithUnit("seconds")),
		queueWait: p.Histogram("task_queue_wait_seconds", attrs,
			metrics.WithDescription("Time between submission and start of execution"), metrics.WithUnit("seconds")),
	}
}
