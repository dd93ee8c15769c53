package customer

import (
	"context"
	"sync"

	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/logger"
	"go.uber.org/zap"
)

type publishedEvent struct {
	key string
	env *event.Envelope
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
}

func (f *fakePublisher) PublishEvent(ctx context.Context, routingKey string, env *event.Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.events = append(f.events, publishedEvent{key: routingKey, env: env})
	return true
}

func (f *fakePublisher) published() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.events...)
}

func testLogger() *logger.CtxZapLogger {
	return logger.FromZap(zap.NewNop(), "customer")
}

func newTestService(repo Repository, pub Publisher, mode WishlistMode) *Service {
	return NewService(repo, pub, Config{
		PublishRoutingKeys: []string{"SHOPPING_SERVICE"},
		WishlistMode:       mode,
	}, testLogger())
}

var apple = event.Product{ID: "p1", Name: "Apple", Desc: "red", Price: 1.5, Available: true}
