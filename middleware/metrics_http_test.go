package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewHTTPMetrics(provider.Meter("http-test"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	perform(r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	perform(r, httptest.NewRequest(http.MethodGet, "/items/2", nil))
	perform(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "http_requests_total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("route")
				counts[route.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), counts["/items/:id"], "route template, not raw path")
	assert.Equal(t, int64(1), counts["unmatched"])
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
	assert.Equal(t, "unknown", statusClass(100))
}
