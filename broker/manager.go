package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/retry"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

var (
	// ErrConnectionFailed every dial attempt failed
	ErrConnectionFailed = errors.New("broker connection failed")

	// ErrNotConnected no open channel
	ErrNotConnected = errors.New("broker not connected")
)

// Manager owns the broker connection and its single shared channel.
// A nil channel is a valid degraded state: publishing returns false and
// consumers wait until the reconnect job restores it.
type Manager struct {
	config   Config
	topology Topology
	dial     Dialer
	backoff  retry.BackoffStrategy
	logger   *logger.CtxZapLogger

	mu     sync.RWMutex
	ch     Channel
	conn   io.Closer
	closed bool

	scheduler gocron.Scheduler
}

// Option configures a Manager
type Option func(*Manager)

// WithDialer replaces the AMQP dialer
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dial = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBackoff replaces the fixed ConnectBackoff between dial attempts
func WithBackoff(b retry.BackoffStrategy) Option {
	return func(m *Manager) {
		if b != nil {
			m.backoff = b
		}
	}
}

// NewManager creates a manager; it does not dial
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("broker config validation failed: %w", err)
	}

	m := &Manager{
		config:   cfg,
		topology: cfg.Topology(),
		dial:     DialAMQP,
		backoff:  retry.ConstantBackoff(cfg.ConnectBackoff),
		logger:   logger.GetLogger("broker"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the effective configuration
func (m *Manager) Config() Config {
	return m.config
}

// Topology returns the declared topology
func (m *Manager) Topology() Topology {
	return m.topology
}

// Connect dials up to ConnectAttempts times, declares the exchange and
// stores the channel. Returns nil when every attempt failed.
func (m *Manager) Connect(ctx context.Context) Channel {
	return m.connect(ctx, m.config.ConnectAttempts)
}

func (m *Manager) connect(ctx context.Context, attempts int) Channel {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil
	}

	type session struct {
		ch   Channel
		conn io.Closer
	}

	s, err := retry.DoWithData(ctx, func() (session, error) {
		ch, conn, err := m.dial(ctx, m.config.URL)
		if err != nil {
			return session{}, err
		}
		if err := m.topology.DeclareExchange(ch); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return session{}, err
		}
		return session{ch: ch, conn: conn}, nil
	},
		retry.MaxAttempts(attempts),
		retry.Backoff(m.backoff),
		retry.OnRetry(func(attempt int, err error) {
			m.logger.WarnCtx(ctx, "⚠️  Broker connect attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err))
		}),
	)
	if err != nil {
		m.logger.ErrorCtx(ctx, "❌ Broker connection failed, running without broker",
			zap.String("exchange", m.config.Exchange),
			zap.Int("attempts", retry.GetAttempts(err)),
			zap.Error(fmt.Errorf("%w: %w", ErrConnectionFailed, err)))
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = s.ch.Close()
		_ = s.conn.Close()
		return nil
	}
	old, oldConn := m.ch, m.conn
	m.ch, m.conn = s.ch, s.conn
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if oldConn != nil {
		_ = oldConn.Close()
	}

	m.logger.InfoCtx(ctx, "✅ Broker connected",
		zap.String("exchange", m.config.Exchange),
		zap.String("exchange_type", m.config.ExchangeType))

	return s.ch
}

// Channel returns the current channel, nil when absent or closed
func (m *Manager) Channel() Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed || m.ch == nil || m.ch.IsClosed() {
		return nil
	}
	return m.ch
}

// Ping reports whether a usable channel exists
func (m *Manager) Ping(ctx context.Context) error {
	if m.Channel() == nil {
		return ErrNotConnected
	}
	return nil
}

// StartReconnect schedules a singleton job that reconnects while the
// channel is nil. One dial attempt per tick.
func (m *Manager) StartReconnect(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(m.config.ReconnectInterval),
		gocron.NewTask(func() {
			if m.Channel() != nil || ctx.Err() != nil {
				return
			}
			m.logger.InfoCtx(ctx, "🔄 Reconnecting to broker")
			m.connect(ctx, 1)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("broker-reconnect"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("schedule reconnect job: %w", err)
	}

	m.mu.Lock()
	m.scheduler = s
	m.mu.Unlock()

	s.Start()
	return nil
}

// Close stops the reconnect job and closes the channel and connection
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	ch, conn, s := m.ch, m.conn, m.scheduler
	m.ch, m.conn, m.scheduler = nil, nil, nil
	m.mu.Unlock()

	var errs []error
	if s != nil {
		errs = append(errs, s.Shutdown())
	}
	if ch != nil && !ch.IsClosed() {
		errs = append(errs, ch.Close())
	}
	if conn != nil {
		errs = append(errs, conn.Close())
	}

	m.logger.InfoCtx(context.Background(), "Broker manager closed")
	return errors.Join(errs...)
}
