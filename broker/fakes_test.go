package broker

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/KOMKZ/yogan-market/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type binding struct {
	queue, key, exchange string
}

// fakeChannel records topology and publish calls
type fakeChannel struct {
	mu sync.Mutex

	exchanges  []string
	queues     []string
	bindings   []binding
	published  []published
	prefetch   int
	deliveries chan amqp.Delivery
	closed     bool

	exchangeErr error
	publishErr  error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery, 16)}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return f.exchangeErr
	}
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = "amq.gen-anon"
	}
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings = append(f.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefetch = prefetchCount
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) publishedMessages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fakeDialer fails the first failures calls
type fakeDialer struct {
	mu       sync.Mutex
	calls    int
	failures int
	ch       *fakeChannel
}

func (d *fakeDialer) dial(ctx context.Context, url string) (Channel, io.Closer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.calls <= d.failures {
		return nil, nil, errors.New("connection refused")
	}
	return d.ch, nopCloser{}, nil
}

func (d *fakeDialer) dialer() Dialer {
	return d.dial
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// fakeAcknowledger records settlement of deliveries
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) snapshot() (acked, nacked []uint64, requeue []bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint64(nil), a.acked...), append([]uint64(nil), a.nacked...), append([]bool(nil), a.requeue...)
}

func testLogger() *logger.CtxZapLogger {
	return logger.FromZap(zap.NewNop(), "broker")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Service = "shopping"
	cfg.Queues = map[string]QueueBinding{
		"shopping": {Name: "SHOPPING_QUEUE", BindingKeys: []string{"SHOPPING_SERVICE"}},
		"customer": {Name: "CUSTOMER_QUEUE", BindingKeys: []string{"CUSTOMER_SERVICE"}},
		"audit":    {BindingKeys: []string{"CUSTOMER_SERVICE", "SHOPPING_SERVICE"}},
	}
	return cfg
}
