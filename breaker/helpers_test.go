package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
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

func newTestManager(t *testing.T, rc ResourceConfig, opts ...ManagerOption) *Manager {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Default = rc
	opts = append([]ManagerOption{WithLogger(logger.FromZap(zap.NewNop(), "breaker"))}, opts...)

	mgr, err := NewManager(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(mgr.Close)
	return mgr
}
