package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg Config, opts ...Option) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithLogger(logger.FromZap(zap.NewNop(), "limiter"))}, opts...)
	l, err := New(cfg, opts...)
	require.NoError(t, err)
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled lets everything through", func(t *testing.T) {
		l, _ := newTestLimiter(t, Config{Rate: 1, Capacity: 1})
		for i := 0; i < 10; i++ {
			assert.True(t, l.Allow(ctx, "k").Allowed)
		}
		assert.Equal(t, 0, l.size())
	})

	t.Run("burst up to capacity then rejects", func(t *testing.T) {
		l, _ := newTestLimiter(t, Config{Enabled: true, Rate: 1, Capacity: 3})

		for i := 0; i < 3; i++ {
			resp := l.Allow(ctx, "k")
			require.True(t, resp.Allowed, "request %d", i)
			assert.Equal(t, int64(2-i), resp.Remaining)
		}

		resp := l.Allow(ctx, "k")
		assert.False(t, resp.Allowed)
		assert.Equal(t, time.Second, resp.RetryAfter)
		assert.Equal(t, int64(3), resp.Limit)
	})

	t.Run("refills over time", func(t *testing.T) {
		l, clock := newTestLimiter(t, Config{Enabled: true, Rate: 2, Capacity: 2})

		assert.True(t, l.Allow(ctx, "k").Allowed)
		assert.True(t, l.Allow(ctx, "k").Allowed)
		assert.False(t, l.Allow(ctx, "k").Allowed)

		clock.Advance(500 * time.Millisecond)
		assert.True(t, l.Allow(ctx, "k").Allowed)
		assert.False(t, l.Allow(ctx, "k").Allowed)

		clock.Advance(time.Hour)
		assert.Equal(t, int64(1), l.Allow(ctx, "k").Remaining, "refill is capped at capacity")
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, _ := newTestLimiter(t, Config{Enabled: true, Rate: 1, Capacity: 1})

		assert.True(t, l.Allow(ctx, "a").Allowed)
		assert.False(t, l.Allow(ctx, "a").Allowed)
		assert.True(t, l.Allow(ctx, "b").Allowed)

		l.Reset("a")
		assert.True(t, l.Allow(ctx, "a").Allowed)
	})

	t.Run("full buckets are swept at max keys", func(t *testing.T) {
		l, clock := newTestLimiter(t, Config{Enabled: true, Rate: 1, Capacity: 1, MaxKeys: 2})

		l.Allow(ctx, "a")
		l.Allow(ctx, "b")
		clock.Advance(2 * time.Second)
		l.Allow(ctx, "c")

		assert.Equal(t, 1, l.size())
	})

	t.Run("records decisions", func(t *testing.T) {
		reader := metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))
		l, _ := newTestLimiter(t, Config{Enabled: true, Rate: 1, Capacity: 1}, WithMeter(provider.Meter("test")))

		l.Allow(ctx, "k")
		l.Allow(ctx, "k")

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(ctx, &rm))
		require.Len(t, rm.ScopeMetrics, 1)
		sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Enabled: true, Rate: 1, Capacity: 1, KeyBy: "path", MaxKeys: 1}
	assert.Error(t, cfg.Validate())

	cfg.KeyBy = KeyByIP
	assert.NoError(t, cfg.Validate())

	assert.NoError(t, Config{}.Validate(), "disabled config is not checked")
}
