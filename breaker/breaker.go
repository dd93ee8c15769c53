// Package breaker 提供熔断器功能
//
// One breaker per upstream resource, created lazily by Manager.
// State transitions are published on an EventBus and never block callers.
package breaker

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCircuitOpen the breaker short-circuited the call
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRequestTimeout the call lost the race against the request timeout
	ErrRequestTimeout = errors.New("circuit breaker request timeout")

	// ErrCallPanicked the protected call panicked
	ErrCallPanicked = errors.New("circuit breaker call panicked")
)

// Breaker 熔断器核心接口
type Breaker interface {
	// Execute runs req.Execute under the resource's breaker
	Execute(ctx context.Context, req *Request) (any, error)

	// GetState returns the resource state (Closed when never used)
	GetState(resource string) State

	// Snapshot returns a read-only copy of the resource state
	Snapshot(resource string) (CircuitSnapshot, bool)

	// Snapshots returns every known resource, sorted by name
	Snapshots() []CircuitSnapshot

	// GetEventBus returns the event bus (nil when disabled)
	GetEventBus() EventBus

	// Reset forces the resource back to Closed
	Reset(resource string)

	// Close releases the event bus
	Close()
}

// Request 请求上下文
type Request struct {
	// Resource upstream identity (service name)
	Resource string

	// Execute the protected call
	Execute func(ctx context.Context) (any, error)

	// Fallback is invoked on short-circuit or failure (optional)
	Fallback func(ctx context.Context, err error) (any, error)

	// Timeout overrides the configured request timeout when > 0
	Timeout time.Duration
}

// State 熔断器状态
type State int

const (
	// StateClosed calls pass through
	StateClosed State = iota

	// StateOpen calls are short-circuited until the reset timeout elapses
	StateOpen

	// StateHalfOpen a bounded number of probes test recovery
	StateHalfOpen
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CircuitSnapshot read-only view of one breaker
type CircuitSnapshot struct {
	Resource        string         `json:"resource"`
	State           State          `json:"state"`
	FailureCount    int            `json:"failure_count"`
	SuccessCount    int            `json:"success_count"`
	ProbesInFlight  int            `json:"probes_in_flight"`
	NextAttemptAt   time.Time      `json:"next_attempt_at"`
	LastStateChange time.Time      `json:"last_state_change"`
	Config          ResourceConfig `json:"config"`
}
