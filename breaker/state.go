package breaker

import (
	"sync"
	"time"
)

// stateManager holds one resource's counters; every field is guarded by mu.
// generation increments on each transition so late results from calls
// admitted under a previous state are ignored.
type stateManager struct {
	mu              sync.Mutex
	state           State
	generation      uint64
	failureCount    int
	successCount    int
	probesInFlight  int
	nextAttemptAt   time.Time
	lastStateChange time.Time
}

// permit is handed to an admitted call and returned with its outcome
type permit struct {
	generation uint64
	probe      bool
}

type transition struct {
	from   State
	to     State
	reason string
}

func newStateManager(now time.Time) *stateManager {
	return &stateManager{
		state:           StateClosed,
		lastStateChange: now,
	}
}

// acquire decides admission. The Open -> HalfOpen handoff happens here under
// the lock, so at most HalfOpenMaxProbes callers become probes.
func (sm *stateManager) acquire(cfg ResourceConfig, now time.Time) (permit, bool, *transition) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var change *transition
	if sm.state == StateOpen {
		if now.Before(sm.nextAttemptAt) {
			return permit{}, false, nil
		}
		change = sm.transitionTo(StateHalfOpen, cfg, now, "reset timeout elapsed")
	}

	if sm.state == StateHalfOpen {
		if sm.probesInFlight >= cfg.HalfOpenMaxProbes {
			return permit{}, false, change
		}
		sm.probesInFlight++
		return permit{generation: sm.generation, probe: true}, true, change
	}

	return permit{generation: sm.generation}, true, change
}

// onSuccess records a successful call
func (sm *stateManager) onSuccess(cfg ResourceConfig, p permit, now time.Time) *transition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if p.generation != sm.generation {
		return nil
	}

	switch sm.state {
	case StateClosed:
		sm.failureCount = 0

	case StateHalfOpen:
		sm.probesInFlight--
		sm.successCount++
		if sm.successCount >= cfg.HalfOpenSuccessThreshold {
			return sm.transitionTo(StateClosed, cfg, now, "half-open success threshold reached")
		}
	}

	return nil
}

// onFailure records a failed or timed-out call
func (sm *stateManager) onFailure(cfg ResourceConfig, p permit, now time.Time) *transition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if p.generation != sm.generation {
		return nil
	}

	switch sm.state {
	case StateClosed:
		sm.failureCount++
		if sm.failureCount >= cfg.FailureThreshold {
			return sm.transitionTo(StateOpen, cfg, now, "failure threshold reached")
		}

	case StateHalfOpen:
		sm.probesInFlight--
		return sm.transitionTo(StateOpen, cfg, now, "probe failed in half-open state")
	}

	return nil
}

// release returns a permit without recording an outcome (caller cancelled)
func (sm *stateManager) release(p permit) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if p.probe && p.generation == sm.generation && sm.state == StateHalfOpen {
		sm.probesInFlight--
	}
}

// reset forces Closed
func (sm *stateManager) reset(cfg ResourceConfig, now time.Time) *transition {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.state == StateClosed {
		sm.failureCount = 0
		return nil
	}
	return sm.transitionTo(StateClosed, cfg, now, "manual reset")
}

func (sm *stateManager) snapshot() CircuitSnapshot {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return CircuitSnapshot{
		State:           sm.state,
		FailureCount:    sm.failureCount,
		SuccessCount:    sm.successCount,
		ProbesInFlight:  sm.probesInFlight,
		NextAttemptAt:   sm.nextAttemptAt,
		LastStateChange: sm.lastStateChange,
	}
}

// transitionTo switches state (lock required)
func (sm *stateManager) transitionTo(to State, cfg ResourceConfig, now time.Time, reason string) *transition {
	from := sm.state

	sm.state = to
	sm.generation++
	sm.lastStateChange = now
	sm.successCount = 0
	sm.probesInFlight = 0

	switch to {
	case StateOpen:
		sm.nextAttemptAt = now.Add(cfg.ResetTimeout)
	case StateClosed:
		sm.failureCount = 0
		sm.nextAttemptAt = time.Time{}
	}

	return &transition{from: from, to: to, reason: reason}
}
