// Package limiter 提供令牌桶限流
//
// One bucket per key (client IP or user id), kept in memory.
package limiter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Response 限流结果
type Response struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	RetryAfter time.Duration // zero when allowed
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter keyed token buckets
type Limiter struct {
	cfg     Config
	now     func() time.Time
	logger  *logger.CtxZapLogger
	decided metric.Int64Counter

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.logger = log
		}
	}
}

// WithMeter counts decisions as ratelimit_decisions_total{allowed}
func WithMeter(meter metric.Meter) Option {
	return func(l *Limiter) {
		if meter == nil {
			return
		}
		counter, err := meter.Int64Counter("ratelimit_decisions_total",
			metric.WithDescription("Rate limiter decisions by outcome"))
		if err == nil {
			l.decided = counter
		}
	}
}

// New creates a limiter
func New(cfg Config, opts ...Option) (*Limiter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}

	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.GetLogger("limiter"),
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Config returns the effective configuration
func (l *Limiter) Config() Config {
	return l.cfg
}

// IsEnabled reports whether requests are limited
func (l *Limiter) IsEnabled() bool {
	return l.cfg.Enabled
}

// Allow takes one token from key's bucket
func (l *Limiter) Allow(ctx context.Context, key string) Response {
	if !l.cfg.Enabled {
		return Response{Allowed: true, Remaining: l.cfg.Capacity, Limit: l.cfg.Capacity}
	}

	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= l.cfg.MaxKeys {
			l.sweep(now)
		}
		b = &bucket{tokens: float64(l.cfg.Capacity), lastRefill: now}
		l.buckets[key] = b
	}
	l.refill(b, now)

	resp := Response{Limit: l.cfg.Capacity}
	if b.tokens >= 1 {
		b.tokens--
		resp.Allowed = true
	} else {
		resp.RetryAfter = time.Duration((1 - b.tokens) / l.cfg.Rate * float64(time.Second))
	}
	resp.Remaining = int64(math.Floor(b.tokens))
	l.mu.Unlock()

	if l.decided != nil {
		l.decided.Add(ctx, 1, metric.WithAttributes(attribute.Bool("allowed", resp.Allowed)))
	}
	if !resp.Allowed {
		l.logger.DebugCtx(ctx, "⛔ Rate limited",
			zap.String("key", key),
			zap.Duration("retry_after", resp.RetryAfter))
	}
	return resp
}

// Reset drops key's bucket
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(float64(l.cfg.Capacity), b.tokens+elapsed*l.cfg.Rate)
	b.lastRefill = now
}

// sweep removes buckets that have refilled completely; caller holds mu
func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		l.refill(b, now)
		if b.tokens >= float64(l.cfg.Capacity) {
			delete(l.buckets, key)
		}
	}
}

// size number of tracked buckets
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
