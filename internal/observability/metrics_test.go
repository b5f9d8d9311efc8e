package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/hashfang/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.RunMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	rm, err := observability.NewRunMetrics(meter)
	require.NoError(t, err)

	return rm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestRunMetrics_RecordsAllInstruments(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordFile(ctx, "hash")
	metrics.RecordBytes(ctx, "hash", 4096)
	metrics.RecordError(ctx, "hash")
	metrics.RecordRun(ctx, "hash", "ok", 100*time.Millisecond)

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "hashfang.files.total")
	require.NotNil(t, files, "hashfang.files.total metric not found")

	bytesMetric := findMetric(rm, "hashfang.bytes.total")
	require.NotNil(t, bytesMetric, "hashfang.bytes.total metric not found")

	errs := findMetric(rm, "hashfang.errors.total")
	require.NotNil(t, errs, "hashfang.errors.total metric not found")

	duration := findMetric(rm, "hashfang.run.duration.seconds")
	require.NotNil(t, duration, "hashfang.run.duration.seconds metric not found")
}

func TestRunMetrics_BytesAccumulate(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordBytes(ctx, "hash", 1024)
	metrics.RecordBytes(ctx, "hash", 2048)

	rm := collectMetrics(t, reader)

	bytesMetric := findMetric(rm, "hashfang.bytes.total")
	require.NotNil(t, bytesMetric)

	sum, ok := bytesMetric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum aggregation")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3072), sum.DataPoints[0].Value)
}
