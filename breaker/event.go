package breaker

import (
	"context"
	"time"
)

// Event interface
type Event interface {
	Type() EventType
	Resource() string
	Timestamp() time.Time
	Context() context.Context
}

// EventType 事件类型
type EventType string

const (
	// EventStateChanged state change event
	EventStateChanged EventType = "state_changed"

	// EventCallSuccess call success event
	EventCallSuccess EventType = "call_success"

	// EventCallFailure call failure event
	EventCallFailure EventType = "call_failure"

	// EventCallTimeout call lost the race against the request timeout
	EventCallTimeout EventType = "call_timeout"

	// EventCallRejected request short-circuited
	EventCallRejected EventType = "call_rejected"

	// EventFallbackSuccess fallback success event
	EventFallbackSuccess EventType = "fallback_success"

	// EventFallbackFailure fallback failure event
	EventFallbackFailure EventType = "fallback_failure"
)

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe registers listener, optionally filtered by event type
	Subscribe(listener EventListener, filters ...EventType) SubscriptionID

	// Unsubscribe removes a subscription
	Unsubscribe(id SubscriptionID)

	// Publish enqueues event; drops it when the buffer is full
	Publish(event Event)

	// Close drains pending events and stops the bus
	Close()
}

// EventListener application-side listener
type EventListener interface {
	OnEvent(event Event)
}

// SubscriptionID subscription handle
type SubscriptionID string

// EventListenerFunc functional listener
type EventListenerFunc func(event Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}

// BaseEvent basic event
type BaseEvent struct {
	eventType EventType
	resource  string
	timestamp time.Time
	ctx       context.Context
}

func (e *BaseEvent) Type() EventType          { return e.eventType }
func (e *BaseEvent) Resource() string         { return e.resource }
func (e *BaseEvent) Timestamp() time.Time     { return e.timestamp }
func (e *BaseEvent) Context() context.Context { return e.ctx }

// NewBaseEvent creates a base event
func NewBaseEvent(ctx context.Context, eventType EventType, resource string, at time.Time) BaseEvent {
	return BaseEvent{
		eventType: eventType,
		resource:  resource,
		timestamp: at,
		ctx:       ctx,
	}
}

// StateChangedEvent state change event
type StateChangedEvent struct {
	BaseEvent
	FromState State
	ToState   State
	Reason    string
	Snapshot  CircuitSnapshot
}

// CallEvent success / failure / timeout
type CallEvent struct {
	BaseEvent
	Success  bool
	Duration time.Duration
	Error    error
}

// RejectedEvent short-circuited request
type RejectedEvent struct {
	BaseEvent
	CurrentState State
}

// FallbackEvent fallback outcome
type FallbackEvent struct {
	BaseEvent
	Success  bool
	Duration time.Duration
	Error    error
}
