package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/KOMKZ/yogan-market/logger"
)

// UnsubscribeFunc removes a subscription
type UnsubscribeFunc func()

type handlerEntry struct {
	id      uint64
	handler Handler
}

// Dispatcher routes envelopes to the handlers registered for their type.
// Handlers of one type run in registration order; the first error stops the chain.
type Dispatcher struct {
	mu           sync.RWMutex
	handlers     map[EventType][]handlerEntry
	interceptors []Interceptor
	nextID       uint64
	logger       *logger.CtxZapLogger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(l *logger.CtxZapLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithInterceptors appends interceptors (outermost first)
func WithInterceptors(interceptors ...Interceptor) DispatcherOption {
	return func(d *Dispatcher) {
		d.interceptors = append(d.interceptors, interceptors...)
	}
}

// NewDispatcher creates a dispatcher with panic recovery installed
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[EventType][]handlerEntry),
		logger:   logger.GetLogger("event"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.interceptors = append(d.interceptors, RecoveryInterceptor())
	return d
}

// Subscribe registers handler for eventType
func (d *Dispatcher) Subscribe(eventType EventType, handler Handler) UnsubscribeFunc {
	if eventType == "" || handler == nil {
		return func() {}
	}

	entry := handlerEntry{id: atomic.AddUint64(&d.nextID, 1), handler: handler}

	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], entry)
	d.mu.Unlock()

	return func() { d.unsubscribe(eventType, entry.id) }
}

func (d *Dispatcher) unsubscribe(eventType EventType, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.handlers[eventType]
	for i, e := range entries {
		if e.id == id {
			d.handlers[eventType] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Use appends a global interceptor; it runs inside the ones registered earlier
func (d *Dispatcher) Use(interceptor Interceptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interceptors = append(d.interceptors, interceptor)
}

// HasHandler reports whether eventType has at least one handler
func (d *Dispatcher) HasHandler(eventType EventType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[eventType]) > 0
}

// Dispatch applies env. handled is false when no handler is registered
// for its type; the caller acks and ignores those.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope) (handled bool, err error) {
	d.mu.RLock()
	entries := append([]handlerEntry(nil), d.handlers[env.Event]...)
	interceptors := append([]Interceptor(nil), d.interceptors...)
	d.mu.RUnlock()

	if len(entries) == 0 {
		return false, nil
	}

	final := func(ctx context.Context, env *Envelope) error {
		for _, e := range entries {
			if err := e.handler.Handle(ctx, env); err != nil {
				return err
			}
		}
		return nil
	}

	if err := buildChain(interceptors, final)(ctx, env); err != nil {
		return true, &HandlerError{Event: env.Event, UserID: env.Data.UserID, Err: err}
	}
	return true, nil
}

// buildChain wraps final so interceptors[0] runs outermost
func buildChain(interceptors []Interceptor, final Next) Next {
	next := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		inner := next
		next = func(ctx context.Context, env *Envelope) error {
			return interceptor(ctx, env, inner)
		}
	}
	return next
}
