package breaker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// eventBus 事件总线实现
// Publish never blocks; listeners run on an ants pool so a slow listener
// cannot stall the dispatch loop.
type eventBus struct {
	listeners map[SubscriptionID]*subscription
	buffer    chan Event
	pool      *ants.Pool
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    int32
	nextID    uint64
	dropped   uint64
}

type subscription struct {
	id       SubscriptionID
	listener EventListener
	filters  map[EventType]bool
}

// NewEventBus creates the bus and starts its dispatch goroutine
func NewEventBus(bufferSize, workers int) (EventBus, error) {
	if bufferSize <= 0 {
		bufferSize = 500
	}
	if workers <= 0 {
		workers = 8
	}

	// listener panics are swallowed by the pool
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(any) {}))
	if err != nil {
		return nil, fmt.Errorf("create breaker event pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &eventBus{
		listeners: make(map[SubscriptionID]*subscription),
		buffer:    make(chan Event, bufferSize),
		pool:      pool,
		ctx:       ctx,
		cancel:    cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus, nil
}

// Subscribe 订阅事件
func (eb *eventBus) Subscribe(listener EventListener, filters ...EventType) SubscriptionID {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := SubscriptionID(fmt.Sprintf("sub-%d", atomic.AddUint64(&eb.nextID, 1)))

	filterMap := make(map[EventType]bool, len(filters))
	for _, f := range filters {
		filterMap[f] = true
	}

	eb.listeners[id] = &subscription{
		id:       id,
		listener: listener,
		filters:  filterMap,
	}

	return id
}

// Unsubscribe 取消订阅
func (eb *eventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	delete(eb.listeners, id)
}

// Publish 发布事件
func (eb *eventBus) Publish(event Event) {
	if atomic.LoadInt32(&eb.closed) == 1 {
		return
	}

	select {
	case eb.buffer <- event:
	default:
		// buffer full, drop
		atomic.AddUint64(&eb.dropped, 1)
	}
}

// Close 关闭事件总线
func (eb *eventBus) Close() {
	if !atomic.CompareAndSwapInt32(&eb.closed, 0, 1) {
		return
	}
	eb.cancel()
	eb.wg.Wait()
	_ = eb.pool.ReleaseTimeout(time.Second)
}

func (eb *eventBus) dispatch() {
	defer eb.wg.Done()

	for {
		select {
		case event := <-eb.buffer:
			eb.notifyListeners(event)

		case <-eb.ctx.Done():
			// drain what is left
			for {
				select {
				case event := <-eb.buffer:
					eb.notifyListeners(event)
				default:
					return
				}
			}
		}
	}
}

func (eb *eventBus) notifyListeners(event Event) {
	eb.mu.RLock()
	listeners := make([]*subscription, 0, len(eb.listeners))
	for _, sub := range eb.listeners {
		listeners = append(listeners, sub)
	}
	eb.mu.RUnlock()

	eventType := event.Type()
	for _, sub := range listeners {
		if len(sub.filters) > 0 && !sub.filters[eventType] {
			continue
		}

		l := sub.listener
		_ = eb.pool.Submit(func() {
			l.OnEvent(event)
		})
	}
}
