package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal  = "hashfang.files.total"
	metricBytesTotal  = "hashfang.bytes.total"
	metricErrorsTotal = "hashfang.errors.total"
	metricRunDuration = "hashfang.run.duration.seconds"

	attrOp     = "op"
	attrStatus = "status"
)

// durationBucketBoundaries covers 10ms to 600s: single small files hash in
// milliseconds while deep directory trees can run for minutes.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunMetrics holds the OTel instruments recorded across a hash or verify run.
type RunMetrics struct {
	filesTotal  metric.Int64Counter
	bytesTotal  metric.Int64Counter
	errorsTotal metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Total number of files processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	bytes, err := mt.Int64Counter(metricBytesTotal,
		metric.WithDescription("Total number of bytes hashed"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBytesTotal, err)
	}

	errs, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of per-file errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &RunMetrics{
		filesTotal:  files,
		bytesTotal:  bytes,
		errorsTotal: errs,
		runDuration: duration,
	}, nil
}

// RecordFile counts one processed file for the given operation.
func (rm *RunMetrics) RecordFile(ctx context.Context, op string) {
	rm.filesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
}

// RecordBytes counts hashed payload bytes for the given operation.
func (rm *RunMetrics) RecordBytes(ctx context.Context, op string, n int64) {
	rm.bytesTotal.Add(ctx, n, metric.WithAttributes(attribute.String(attrOp, op)))
}

// RecordError counts one per-file failure for the given operation.
func (rm *RunMetrics) RecordError(ctx context.Context, op string) {
	rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
}

// RecordRun records a completed run with its operation, status, and duration.
func (rm *RunMetrics) RecordRun(ctx context.Context, op, status string, duration time.Duration) {
	rm.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	))
}
