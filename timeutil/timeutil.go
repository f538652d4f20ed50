// Package timeutil formats wall-clock timestamps and durations and provides
// a stopwatch Timer.
package timeutil

import (
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the layout of Timestamp and of every log line.
	TimestampLayout = "2006-01-02 15:04:05.000"
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
)

// Timestamp returns the local time with millisecond precision.
func Timestamp() string { return time.Now().Format(TimestampLayout) }

// Date returns the local date.
func Date() string { return time.Now().Format(DateLayout) }

// Clock returns the local time of day.
func Clock() string { return time.Now().Format(ClockLayout) }

// UnixMilli returns milliseconds since the Unix epoch.
func UnixMilli() int64 { return time.Now().UnixMilli() }

// UnixMicro returns microseconds since the Unix epoch.
func UnixMicro() int64 { return time.Now().UnixMicro() }

// FormatDuration renders d truncated to milliseconds as "1h 2m 3s 4ms".
// Leading zero units are omitted; the millisecond unit is always present.
// Negative durations carry a single leading "-".
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	d = writeSign(&b, d.Truncate(time.Millisecond))
	writeLarge(&b, d)
	b.WriteString(strconv.FormatInt(int64(d%time.Second/time.Millisecond), 10))
	b.WriteString("ms")
	return b.String()
}

// FormatDurationMicro renders d truncated to microseconds as "1h 2m 3s 4ms 5μs".
// Leading zero units are omitted; the microsecond unit is always present.
// Negative durations carry a single leading "-".
func FormatDurationMicro(d time.Duration) string {
	var b strings.Builder
	d = writeSign(&b, d.Truncate(time.Microsecond))
	started := writeLarge(&b, d)
	if ms := d % time.Second / time.Millisecond; ms > 0 || started {
		b.WriteString(strconv.FormatInt(int64(ms), 10))
		b.WriteString("ms ")
	}
	b.WriteString(strconv.FormatInt(int64(d%time.Millisecond/time.Microsecond), 10))
	b.WriteString("μs")
	return b.String()
}

// writeSign writes "-" for a negative d and returns its magnitude.
// d must already be truncated so that negating it cannot overflow.
func writeSign(b *strings.Builder, d time.Duration) time.Duration {
	if d >= 0 {
		return d
	}
	b.WriteByte('-')
	return -d
}

// writeLarge writes the hour, minute and second units of a non-negative d
// and reports whether any was written.
func writeLarge(b *strings.Builder, d time.Duration) bool {
	h := d / time.Hour
	m := d % time.Hour / time.Minute
	s := d % time.Minute / time.Second

	started := false
	for _, u := range []struct {
		v      time.Duration
		suffix string
	}{{h, "h "}, {m, "m "}, {s, "s "}} {
		if u.v > 0 || started {
			started = true
			b.WriteString(strconv.FormatInt(int64(u.v), 10))
			b.WriteString(u.suffix)
		}
	}
	return started
}
