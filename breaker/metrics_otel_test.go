package breaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(agg metricdata.Aggregation) int64 {
	sum, ok := agg.(metricdata.Sum[int64])
	if !ok {
		return -1
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

// TestOTelBreakerMetrics_RecordsEvents
func TestOTelBreakerMetrics_RecordsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	mgr := newTestManager(t, ResourceConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
		WithMeter(provider.Meter("breaker-test")))

	_, _ = run(mgr, "customer", succeed)
	_, _ = run(mgr, "customer", fail)
	_, _ = run(mgr, "customer", fail)
	_, _ = run(mgr, "customer", succeed) // rejected

	assert.Eventually(t, func() bool {
		data := collect(t, reader)
		return sumOf(data["breaker_calls_total"]) == 3 &&
			sumOf(data["breaker_rejections_total"]) == 1 &&
			sumOf(data["breaker_state_transitions_total"]) == 1
	}, time.Second, 10*time.Millisecond)

	data := collect(t, reader)
	gauge, ok := data["breaker_state"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(StateOpen), gauge.DataPoints[0].Value)
}
