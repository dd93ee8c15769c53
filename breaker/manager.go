package breaker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Manager keyed breaker registry: one breaker per resource, created on first use
type Manager struct {
	config   Config
	breakers map[string]*circuitBreaker
	eventBus EventBus
	metrics  *OTelBreakerMetrics
	logger   *logger.CtxZapLogger
	now      func() time.Time
	meter    metric.Meter
	mu       sync.RWMutex
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithLogger sets the manager logger
func WithLogger(l *logger.CtxZapLogger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMeter records breaker metrics on meter
func WithMeter(meter metric.Meter) ManagerOption {
	return func(m *Manager) {
		m.meter = meter
	}
}

// NewManager creates the breaker manager
func NewManager(config Config, opts ...ManagerOption) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := &Manager{
		config:   config,
		breakers: make(map[string]*circuitBreaker),
		logger:   logger.GetLogger("breaker"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx := context.Background()
	if !config.Enabled {
		m.logger.DebugCtx(ctx, "⏭️  Circuit breaker disabled, calls pass through")
		return m, nil
	}

	bus, err := NewEventBus(config.EventBusBuffer, config.EventWorkers)
	if err != nil {
		return nil, err
	}
	m.eventBus = bus

	if m.meter != nil {
		metrics, err := NewOTelBreakerMetrics(m.meter, m)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("register breaker metrics: %w", err)
		}
		m.metrics = metrics
		bus.Subscribe(metrics)
	}

	m.logger.DebugCtx(ctx, "🎯 Circuit breaker manager initialization",
		zap.Int("event_bus_buffer", config.EventBusBuffer),
		zap.Int("resources", len(config.Resources)))

	return m, nil
}

// Execute the protected operation
func (m *Manager) Execute(ctx context.Context, req *Request) (any, error) {
	if !m.config.Enabled {
		return req.Execute(ctx)
	}
	return m.getOrCreateBreaker(req.Resource).Execute(ctx, req)
}

// GetState returns the resource state without creating a breaker
func (m *Manager) GetState(resource string) State {
	if cb := m.lookup(resource); cb != nil {
		return cb.state.snapshot().State
	}
	return StateClosed
}

// Snapshot returns a copy of the resource's state
func (m *Manager) Snapshot(resource string) (CircuitSnapshot, bool) {
	if cb := m.lookup(resource); cb != nil {
		return cb.snapshot(), true
	}
	return CircuitSnapshot{}, false
}

// Snapshots returns every breaker sorted by resource
func (m *Manager) Snapshots() []CircuitSnapshot {
	m.mu.RLock()
	breakers := make([]*circuitBreaker, 0, len(m.breakers))
	for _, cb := range m.breakers {
		breakers = append(breakers, cb)
	}
	m.mu.RUnlock()

	snaps := make([]CircuitSnapshot, 0, len(breakers))
	for _, cb := range breakers {
		snaps = append(snaps, cb.snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Resource < snaps[j].Resource })
	return snaps
}

// GetEventBus obtain event bus
func (m *Manager) GetEventBus() EventBus {
	return m.eventBus
}

// Reset forces a resource back to Closed
func (m *Manager) Reset(resource string) {
	if cb := m.lookup(resource); cb != nil {
		cb.reset(context.Background())
	}
}

// IsEnabled reports whether breakers are active
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// Close Manager
func (m *Manager) Close() {
	if m.eventBus != nil {
		m.eventBus.Close()
	}
}

func (m *Manager) lookup(resource string) *circuitBreaker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.breakers[resource]
}

// getOrCreateBreaker double-checked lazy creation
func (m *Manager) getOrCreateBreaker(resource string) *circuitBreaker {
	if cb := m.lookup(resource); cb != nil {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, exists := m.breakers[resource]; exists {
		return cb
	}

	resourceConfig := m.config.GetResourceConfig(resource)
	cb := newCircuitBreaker(resource, resourceConfig, m.eventBus, m.logger, m.now)
	m.breakers[resource] = cb

	m.logger.DebugCtx(context.Background(), "🎯 Creating circuit breaker instance",
		zap.String("resource", resource),
		zap.Int("failure_threshold", resourceConfig.FailureThreshold),
		zap.Duration("reset_timeout", resourceConfig.ResetTimeout),
		zap.Duration("request_timeout", resourceConfig.RequestTimeout))

	return cb
}

var _ Breaker = (*Manager)(nil)
