package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"go.uber.org/zap"
)

// circuitBreaker one resource's breaker
type circuitBreaker struct {
	resource string
	config   ResourceConfig
	state    *stateManager
	eventBus EventBus
	logger   *logger.CtxZapLogger
	now      func() time.Time
}

func newCircuitBreaker(resource string, config ResourceConfig, eventBus EventBus, log *logger.CtxZapLogger, now func() time.Time) *circuitBreaker {
	return &circuitBreaker{
		resource: resource,
		config:   config,
		state:    newStateManager(now()),
		eventBus: eventBus,
		logger:   log,
		now:      now,
	}
}

type callResult struct {
	value any
	err   error
}

// Execute the protected operation
func (cb *circuitBreaker) Execute(ctx context.Context, req *Request) (any, error) {
	p, admitted, change := cb.state.acquire(cb.config, cb.now())
	cb.handleTransition(ctx, change)

	if !admitted {
		snap := cb.state.snapshot()
		cb.logger.WarnCtx(ctx, "⛔ [CircuitBreaker] Request rejected",
			zap.String("resource", cb.resource),
			zap.String("state", snap.State.String()),
			zap.Time("next_attempt_at", snap.NextAttemptAt))

		cb.publish(&RejectedEvent{
			BaseEvent:    NewBaseEvent(ctx, EventCallRejected, cb.resource, cb.now()),
			CurrentState: snap.State,
		})

		if req.Fallback != nil {
			return cb.executeFallback(ctx, req, ErrCircuitOpen)
		}
		return nil, ErrCircuitOpen
	}

	start := time.Now()
	result, err := cb.call(ctx, req)
	duration := time.Since(start)

	if err == nil {
		cb.logger.DebugCtx(ctx, "✅ [CircuitBreaker] Call succeeded",
			zap.String("resource", cb.resource),
			zap.Duration("duration", duration))

		cb.publish(&CallEvent{
			BaseEvent: NewBaseEvent(ctx, EventCallSuccess, cb.resource, cb.now()),
			Success:   true,
			Duration:  duration,
		})
		cb.handleTransition(ctx, cb.state.onSuccess(cb.config, p, cb.now()))
		return result, nil
	}

	// Caller went away: neither success nor failure
	if ctx.Err() != nil && !errors.Is(err, ErrRequestTimeout) {
		cb.state.release(p)
		return nil, err
	}

	eventType := EventCallFailure
	if errors.Is(err, ErrRequestTimeout) {
		eventType = EventCallTimeout
	}

	cb.logger.DebugCtx(ctx, "❌ [CircuitBreaker] Call failed",
		zap.String("resource", cb.resource),
		zap.Duration("duration", duration),
		zap.Error(err))

	cb.publish(&CallEvent{
		BaseEvent: NewBaseEvent(ctx, eventType, cb.resource, cb.now()),
		Duration:  duration,
		Error:     err,
	})
	cb.handleTransition(ctx, cb.state.onFailure(cb.config, p, cb.now()))

	if req.Fallback != nil {
		return cb.executeFallback(ctx, req, err)
	}
	return result, err
}

// call races req.Execute against the request timeout.
// The losing goroutine's result is discarded.
func (cb *circuitBreaker) call(ctx context.Context, req *Request) (any, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = cb.config.RequestTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("%w: %v", ErrCallPanicked, r)}
			}
		}()
		v, err := req.Execute(callCtx)
		done <- callResult{value: v, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrRequestTimeout
		}
		return res.value, res.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrRequestTimeout
	}
}

func (cb *circuitBreaker) executeFallback(ctx context.Context, req *Request, originalErr error) (any, error) {
	start := time.Now()
	result, err := req.Fallback(ctx, originalErr)

	eventType := EventFallbackSuccess
	if err != nil {
		eventType = EventFallbackFailure
	}
	cb.publish(&FallbackEvent{
		BaseEvent: NewBaseEvent(ctx, eventType, cb.resource, cb.now()),
		Success:   err == nil,
		Duration:  time.Since(start),
		Error:     err,
	})

	return result, err
}

// handleTransition logs and publishes a state change
func (cb *circuitBreaker) handleTransition(ctx context.Context, change *transition) {
	if change == nil {
		return
	}

	snap := cb.snapshot()
	fields := []zap.Field{
		zap.String("resource", cb.resource),
		zap.String("from", change.from.String()),
		zap.String("to", change.to.String()),
		zap.String("reason", change.reason),
		zap.Int("failure_count", snap.FailureCount),
	}
	if change.to == StateOpen {
		cb.logger.WarnCtx(ctx, "🔴 [CircuitBreaker] Circuit opened",
			append(fields, zap.Time("next_attempt_at", snap.NextAttemptAt))...)
	} else {
		cb.logger.InfoCtx(ctx, "🔄 [CircuitBreaker] State changed", fields...)
	}

	cb.publish(&StateChangedEvent{
		BaseEvent: NewBaseEvent(ctx, EventStateChanged, cb.resource, cb.now()),
		FromState: change.from,
		ToState:   change.to,
		Reason:    change.reason,
		Snapshot:  snap,
	})
}

func (cb *circuitBreaker) publish(event Event) {
	if cb.eventBus != nil {
		cb.eventBus.Publish(event)
	}
}

func (cb *circuitBreaker) snapshot() CircuitSnapshot {
	snap := cb.state.snapshot()
	snap.Resource = cb.resource
	snap.Config = cb.config
	return snap
}

func (cb *circuitBreaker) reset(ctx context.Context) {
	cb.handleTransition(ctx, cb.state.reset(cb.config, cb.now()))
}
