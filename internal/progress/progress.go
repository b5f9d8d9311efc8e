// Package progress renders live hashing telemetry: a rewriting status line
// with file/byte counters and both average and sliding-window throughput.
// Output goes to a side stream (stderr) so the primary report stays clean
// and redirectable.
package progress

import (
	"fmt"
	"io"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/hashfang/pkg/units"
)

// Telemetry cadence.
const (
	// UpdateInterval is the minimum time between status line redraws, so
	// terminal writes never throttle hashing.
	UpdateInterval = 200 * time.Millisecond

	// ThroughputWindow is the sliding window the current rate is computed
	// over; it tracks bursts the whole-run average smooths away.
	ThroughputWindow = time.Second
)

// statusPadding clears leftover characters when a redraw is shorter than
// the previous status line.
const statusPadding = "        "

// sample pairs an instant with the cumulative byte count at that instant.
type sample struct {
	at  time.Time
	cum uint64
}

// Tracker accumulates hashing telemetry. It is owned by the orchestrating
// goroutine: hashing workers never touch it, so no record operation can
// block or slow the pipeline. All operations are O(1) amortized; window
// eviction is bounded by the window duration, not the run length.
type Tracker struct {
	out io.Writer
	clk clock.Clock

	start    time.Time
	nextEmit time.Time

	files  int
	bytes  uint64
	window []sample

	silent bool
}

// New creates a Tracker writing to out. The clock is injected so the
// emission gate and the sliding window are testable against a fake.
// A silent Tracker keeps counting but never writes.
//
// The gate starts open: the first record emits right away, then redraws are
// spaced by UpdateInterval.
func New(out io.Writer, clk clock.Clock, silent bool) *Tracker {
	now := clk.Now()

	return &Tracker{
		out:      out,
		clk:      clk,
		start:    now,
		nextEmit: now,
		silent:   silent,
	}
}

// RecordBytes adds n freshly queued bytes. Called by the pipeline reader
// once per chunk, after the chunk is handed to every worker.
func (t *Tracker) RecordBytes(n int) {
	t.bytes += uint64(n) //nolint:gosec // n is a read length, never negative.

	now := t.clk.Now()
	t.window = append(t.window, sample{at: now, cum: t.bytes})
	t.evict(now)
	t.maybeEmit(now)
}

// RecordFile notes one completed output row (hashed, skipped or failed —
// every row the report emits counts).
func (t *Tracker) RecordFile() {
	t.files++
	t.maybeEmit(t.clk.Now())
}

// Files returns the completed row count.
func (t *Tracker) Files() int { return t.files }

// Bytes returns the total bytes recorded.
func (t *Tracker) Bytes() uint64 { return t.bytes }

// Finish prints the run summary line. Call once, after the last row.
func (t *Tracker) Finish() {
	if t.silent {
		return
	}

	elapsed := t.clk.Now().Sub(t.start)

	avg := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		avg = float64(t.bytes) / secs / units.MiB
	}

	fmt.Fprintf(t.out, "\nFinished: %d files processed, %.2f MiB/s, total time: %s, total bytes: %s\n",
		t.files, avg, formatDuration(elapsed), humanize.IBytes(t.bytes))
}

// evict drops samples older than the throughput window.
func (t *Tracker) evict(now time.Time) {
	cutoff := now.Add(-ThroughputWindow)

	i := 0
	for i < len(t.window) && t.window[i].at.Before(cutoff) {
		i++
	}

	t.window = t.window[i:]
}

// maybeEmit redraws the status line when the emission gate allows it.
func (t *Tracker) maybeEmit(now time.Time) {
	if t.silent || now.Before(t.nextEmit) {
		return
	}

	t.nextEmit = now.Add(UpdateInterval)

	elapsed := now.Sub(t.start).Seconds()

	avg := 0.0
	if elapsed > 0 {
		avg = float64(t.bytes) / elapsed / units.MiB
	}

	fmt.Fprintf(t.out, "\rProcessed: %d files, %s, Avg: %.2f MiB/s, Current: %.2f MiB/s%s",
		t.files, humanize.IBytes(t.bytes), avg, t.currentRate(), statusPadding)
}

// currentRate computes the sliding-window throughput in MiB/s. Fewer than
// two samples cannot span an interval, so the rate reports zero.
func (t *Tracker) currentRate() float64 {
	if len(t.window) < 2 {
		return 0
	}

	first := t.window[0]
	last := t.window[len(t.window)-1]

	elapsed := last.at.Sub(first.at).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(last.cum-first.cum) / elapsed / units.MiB
}

// formatDuration renders HH:MM:SS; hours grow without bound rather than
// wrapping at 24.
func formatDuration(d time.Duration) string {
	secs := int64(d.Seconds())

	const (
		secondsPerMinute = 60
		secondsPerHour   = 3600
	)

	return fmt.Sprintf("%02d:%02d:%02d",
		secs/secondsPerHour,
		(secs%secondsPerHour)/secondsPerMinute,
		secs%secondsPerMinute)
}
