package cli

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ygrebnov/utoolkit/metrics"
	"github.com/ygrebnov/utoolkit/strutil"
	"github.com/ygrebnov/utoolkit/threadpool"
	"github.com/ygrebnov/utoolkit/timeutil"
)

var (
	green = color.New(color.FgGreen, color.Bold)
	red   = color.New(color.FgRed, color.Bold)
)

// renderSummary prints the run outcome and the pool's metrics as a table,
// followed by a coloured status line.
func renderSummary(out io.Writer, p *threadpool.Pool, rc RunConfig, res *outcome, samples []metrics.Sample) error {
	throughput := 0.0
	if secs := res.elapsed.Seconds(); secs > 0 {
		throughput = float64(res.succeeded.Load()) / secs
	}

	rows := [][2]string{
		{"pool", p.Name()},
		{"state", p.State().String()},
		{"threads", strutil.FromInt(p.ThreadCount())},
		{"tasks", strutil.FromInt(rc.Tasks)},
		{"succeeded", strutil.FromInt64(res.succeeded.Load())},
		{"failed", strutil.FromInt64(res.failed.Load())},
		{"resubmitted", strutil.FromInt64(res.retries.Load())},
		{"sum of squares", strutil.FromInt64(res.sum.Load())},
		{"elapsed", timeutil.FormatDuration(res.elapsed)},
		{"throughput", strutil.FromFloat(throughput, 1) + " tasks/s"},
	}
	for _, s := range samples {
		rows = append(rows, [2]string{s.Name, sampleValue(s)})
	}

	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Value")
	for _, r := range rows {
		if err := table.Append(r[0], r[1]); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if n := res.failed.Load(); n > 0 {
		_, err := red.Fprintf(out, "%d of %d tasks failed\n", n, rc.Tasks)
		return err
	}
	_, err := green.Fprintf(out, "all %d tasks succeeded\n", res.succeeded.Load())
	return err
}

func sampleValue(s metrics.Sample) string {
	if s.Kind != "histogram" {
		return strutil.FromInt64(s.Value)
	}
	mean := time.Duration(s.Hist.Mean * float64(time.Second))
	peak := time.Duration(s.Hist.Max * float64(time.Second))
	return strutil.Format("n=%d mean=%s max=%s", s.Hist.Count,
		timeutil.FormatDurationMicro(mean), timeutil.FormatDurationMicro(peak))
}
