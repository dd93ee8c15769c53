package breaker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventBus_FilterAndDeliver
func TestEventBus_FilterAndDeliver(t *testing.T) {
	bus, err := NewEventBus(10, 2)
	require.NoError(t, err)
	defer bus.Close()

	var all, stateOnly int32
	bus.Subscribe(EventListenerFunc(func(e Event) { atomic.AddInt32(&all, 1) }))
	bus.Subscribe(EventListenerFunc(func(e Event) { atomic.AddInt32(&stateOnly, 1) }), EventStateChanged)

	ctx := context.Background()
	bus.Publish(&CallEvent{BaseEvent: NewBaseEvent(ctx, EventCallSuccess, "customer", time.Now())})
	bus.Publish(&StateChangedEvent{BaseEvent: NewBaseEvent(ctx, EventStateChanged, "customer", time.Now())})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&all) == 2 && atomic.LoadInt32(&stateOnly) == 1
	}, time.Second, 5*time.Millisecond)
}

// TestEventBus_Unsubscribe
func TestEventBus_Unsubscribe(t *testing.T) {
	bus, err := NewEventBus(10, 1)
	require.NoError(t, err)
	defer bus.Close()

	var count int32
	id := bus.Subscribe(EventListenerFunc(func(e Event) { atomic.AddInt32(&count, 1) }))
	bus.Unsubscribe(id)

	bus.Publish(&RejectedEvent{BaseEvent: NewBaseEvent(context.Background(), EventCallRejected, "x", time.Now())})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count))
}

// TestEventBus_PublishNeverBlocks a stuck listener cannot stall publishers
func TestEventBus_PublishNeverBlocks(t *testing.T) {
	bus, err := NewEventBus(1, 1)
	require.NoError(t, err)

	block := make(chan struct{})
	bus.Subscribe(EventListenerFunc(func(e Event) { <-block }))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(&RejectedEvent{BaseEvent: NewBaseEvent(context.Background(), EventCallRejected, "x", time.Now())})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	close(block)
	bus.Close()
}

// TestEventBus_ListenerPanicIsContained
func TestEventBus_ListenerPanicIsContained(t *testing.T) {
	bus, err := NewEventBus(10, 2)
	require.NoError(t, err)
	defer bus.Close()

	var ok int32
	bus.Subscribe(EventListenerFunc(func(e Event) { panic("listener bug") }))
	bus.Subscribe(EventListenerFunc(func(e Event) { atomic.AddInt32(&ok, 1) }))

	bus.Publish(&RejectedEvent{BaseEvent: NewBaseEvent(context.Background(), EventCallRejected, "x", time.Now())})
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&ok) == 1 }, time.Second, 5*time.Millisecond)
}

// TestManager_PublishesStateTransitions
func TestManager_PublishesStateTransitions(t *testing.T) {
	clock := newFakeClock()
	mgr := newTestManager(t, ResourceConfig{
		FailureThreshold:         1,
		ResetTimeout:             time.Second,
		HalfOpenSuccessThreshold: 1,
	}, WithClock(clock.Now))

	var mu sync.Mutex
	var transitions []string
	mgr.GetEventBus().Subscribe(EventListenerFunc(func(e Event) {
		sc := e.(*StateChangedEvent)
		mu.Lock()
		transitions = append(transitions, sc.FromState.String()+"->"+sc.ToState.String())
		mu.Unlock()
	}), EventStateChanged)

	_, _ = run(mgr, "customer", fail)
	clock.Advance(time.Second)
	_, _ = run(mgr, "customer", succeed)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}
