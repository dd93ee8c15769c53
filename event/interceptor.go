package event

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Next 继续执行下一个拦截器/处理器
type Next func(ctx context.Context, env *Envelope) error

// Interceptor wraps handler execution (logging, recovery, metrics)
type Interceptor func(ctx context.Context, env *Envelope, next Next) error

// RecoveryInterceptor converts a handler panic into an error
func RecoveryInterceptor() Interceptor {
	return func(ctx context.Context, env *Envelope, next Next) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panicked: %v", r)
			}
		}()
		return next(ctx, env)
	}
}

// LoggingInterceptor logs each handled envelope at debug level
func LoggingInterceptor(log *logger.CtxZapLogger) Interceptor {
	return func(ctx context.Context, env *Envelope, next Next) error {
		start := time.Now()
		err := next(ctx, env)
		log.DebugCtx(ctx, "📨 Event handled",
			zap.String("event", string(env.Event)),
			zap.String("user_id", env.Data.UserID),
			zap.String("message_id", env.ID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
}

// MetricsInterceptor counts handled envelopes by type and outcome
func MetricsInterceptor(meter metric.Meter) (Interceptor, error) {
	handled, err := meter.Int64Counter("event_handled_total",
		metric.WithDescription("Events applied by handlers, by type and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("event_handle_duration_seconds",
		metric.WithDescription("Handler latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, env *Envelope, next Next) error {
		start := time.Now()
		err := next(ctx, env)

		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		eventAttr := attribute.String("event", string(env.Event))
		handled.Add(ctx, 1, metric.WithAttributes(eventAttr, attribute.String("outcome", outcome)))
		duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(eventAttr))
		return err
	}, nil
}
