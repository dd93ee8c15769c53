package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStateManager_StaleResultsIgnored results from an older generation do not count
func TestStateManager_StaleResultsIgnored(t *testing.T) {
	cfg := DefaultResourceConfig()
	cfg.FailureThreshold = 2
	now := time.Now()
	sm := newStateManager(now)

	slow, ok, _ := sm.acquire(cfg, now)
	require.True(t, ok)

	p1, _, _ := sm.acquire(cfg, now)
	p2, _, _ := sm.acquire(cfg, now)
	sm.onFailure(cfg, p1, now)
	change := sm.onFailure(cfg, p2, now)
	require.NotNil(t, change)
	assert.Equal(t, StateOpen, change.to)

	// the slow call admitted while Closed finishes after the breaker opened
	assert.Nil(t, sm.onSuccess(cfg, slow, now))
	snap := sm.snapshot()
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, 2, snap.FailureCount)
}

// TestStateManager_ReleaseFreesProbeSlot
func TestStateManager_ReleaseFreesProbeSlot(t *testing.T) {
	cfg := DefaultResourceConfig()
	cfg.FailureThreshold = 1
	now := time.Now()
	sm := newStateManager(now)

	p, _, _ := sm.acquire(cfg, now)
	sm.onFailure(cfg, p, now)

	later := now.Add(cfg.ResetTimeout)
	probe, ok, change := sm.acquire(cfg, later)
	require.True(t, ok)
	require.NotNil(t, change)
	assert.True(t, probe.probe)

	_, ok, _ = sm.acquire(cfg, later)
	assert.False(t, ok)

	sm.release(probe)
	_, ok, _ = sm.acquire(cfg, later)
	assert.True(t, ok)
}

// TestStateManager_OpenUntilNextAttempt
func TestStateManager_OpenUntilNextAttempt(t *testing.T) {
	cfg := DefaultResourceConfig()
	cfg.FailureThreshold = 1
	now := time.Now()
	sm := newStateManager(now)

	p, _, _ := sm.acquire(cfg, now)
	sm.onFailure(cfg, p, now)

	snap := sm.snapshot()
	assert.True(t, snap.NextAttemptAt.After(now))

	_, ok, _ := sm.acquire(cfg, now.Add(cfg.ResetTimeout-time.Nanosecond))
	assert.False(t, ok)
}
