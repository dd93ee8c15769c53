package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher() *event.Dispatcher {
	return event.NewDispatcher(event.WithLogger(logger.FromZap(zap.NewNop(), "event")))
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, RoutingKey: "SHOPPING_SERVICE", Body: []byte(body)}
}

// runConsumer feeds deliveries then closes the channel so Subscribe returns
func runConsumer(t *testing.T, c *Consumer, ch *fakeChannel, ds ...amqp.Delivery) {
	t.Helper()
	for _, d := range ds {
		ch.deliveries <- d
	}
	close(ch.deliveries)
	require.NoError(t, c.Subscribe(context.Background(), ch))
}

func TestConsumer_Subscribe_DeclaresAndBinds(t *testing.T) {
	ch := newFakeChannel()
	c := NewConsumer(testConfig(), newTestDispatcher(), WithConsumerLogger(testLogger()))

	runConsumer(t, c, ch)

	assert.Equal(t, []string{"SHOPPING_QUEUE"}, ch.queues)
	assert.Equal(t, []binding{{queue: "SHOPPING_QUEUE", key: "SHOPPING_SERVICE", exchange: "marketplace"}}, ch.bindings)
	assert.Equal(t, 10, ch.prefetch)
}

func TestConsumer_Subscribe_AnonymousQueue(t *testing.T) {
	cfg := testConfig()
	cfg.Service = "audit"
	ch := newFakeChannel()
	c := NewConsumer(cfg, newTestDispatcher(), WithConsumerLogger(testLogger()))

	runConsumer(t, c, ch)

	require.Len(t, ch.bindings, 2)
	assert.Equal(t, "amq.gen-anon", ch.bindings[0].queue)
}

func TestConsumer_Subscribe_NilChannel(t *testing.T) {
	c := NewConsumer(testConfig(), newTestDispatcher(), WithConsumerLogger(testLogger()))
	assert.NoError(t, c.Subscribe(context.Background(), nil))
}

func TestConsumer_Subscribe_UnknownService(t *testing.T) {
	cfg := testConfig()
	cfg.Service = "tenant"
	c := NewConsumer(cfg, newTestDispatcher(), WithConsumerLogger(testLogger()))

	assert.Error(t, c.Subscribe(context.Background(), newFakeChannel()))
}

func TestConsumer_Deliveries(t *testing.T) {
	cartBody := `{"event":"ADD_TO_CART","data":{"userId":"u1","product":{"_id":"p1"},"qty":1}}`

	t.Run("handler success acks", func(t *testing.T) {
		d := newTestDispatcher()
		var got *event.Envelope
		d.Subscribe(event.AddToCart, event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
			got = env
			return nil
		}))
		ack := &fakeAcknowledger{}

		runConsumer(t, NewConsumer(testConfig(), d, WithConsumerLogger(testLogger())), newFakeChannel(),
			delivery(ack, 7, cartBody))

		acked, nacked, _ := ack.snapshot()
		assert.Equal(t, []uint64{7}, acked)
		assert.Empty(t, nacked)
		require.NotNil(t, got)
		assert.Equal(t, uint64(7), got.DeliveryTag)
	})

	t.Run("non-json nacks without requeue and skips handlers", func(t *testing.T) {
		d := newTestDispatcher()
		called := false
		d.Subscribe(event.AddToCart, event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
			called = true
			return nil
		}))
		ack := &fakeAcknowledger{}

		runConsumer(t, NewConsumer(testConfig(), d, WithConsumerLogger(testLogger())), newFakeChannel(),
			delivery(ack, 1, "not json"))

		acked, nacked, requeue := ack.snapshot()
		assert.Empty(t, acked)
		assert.Equal(t, []uint64{1}, nacked)
		assert.Equal(t, []bool{false}, requeue)
		assert.False(t, called)
	})

	t.Run("handler error nacks without requeue", func(t *testing.T) {
		d := newTestDispatcher()
		d.Subscribe(event.AddToCart, event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
			return errors.New("storage down")
		}))
		ack := &fakeAcknowledger{}

		runConsumer(t, NewConsumer(testConfig(), d, WithConsumerLogger(testLogger())), newFakeChannel(),
			delivery(ack, 3, cartBody))

		_, nacked, requeue := ack.snapshot()
		assert.Equal(t, []uint64{3}, nacked)
		assert.Equal(t, []bool{false}, requeue)
	})

	t.Run("unknown event type acks", func(t *testing.T) {
		ack := &fakeAcknowledger{}

		runConsumer(t, NewConsumer(testConfig(), newTestDispatcher(), WithConsumerLogger(testLogger())), newFakeChannel(),
			delivery(ack, 4, `{"event":"ORDER_SHIPPED","data":{}}`))

		acked, _, _ := ack.snapshot()
		assert.Equal(t, []uint64{4}, acked)
	})

	t.Run("processes in order", func(t *testing.T) {
		d := newTestDispatcher()
		var tags []uint64
		d.Subscribe(event.AddToCart, event.HandlerFunc(func(ctx context.Context, env *event.Envelope) error {
			tags = append(tags, env.DeliveryTag)
			return nil
		}))
		ack := &fakeAcknowledger{}

		runConsumer(t, NewConsumer(testConfig(), d, WithConsumerLogger(testLogger())), newFakeChannel(),
			delivery(ack, 1, cartBody), delivery(ack, 2, "garbage"), delivery(ack, 3, cartBody))

		acked, nacked, _ := ack.snapshot()
		assert.Equal(t, []uint64{1, 3}, tags)
		assert.Equal(t, []uint64{1, 3}, acked)
		assert.Equal(t, []uint64{2}, nacked)
	})
}

func TestConsumer_StopsOnContext(t *testing.T) {
	ch := newFakeChannel()
	c := NewConsumer(testConfig(), newTestDispatcher(), WithConsumerLogger(testLogger()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Subscribe(ctx, ch) }()

	assert.Eventually(t, c.IsRunning, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_RunWaitsForChannel(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectInterval = 10 * time.Millisecond

	ch := newFakeChannel()
	m := newTestManager(t, &fakeDialer{ch: ch})
	c := NewConsumer(cfg, newTestDispatcher(), WithConsumerLogger(testLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, m) }()

	assert.Never(t, c.IsRunning, 50*time.Millisecond, 10*time.Millisecond)

	require.NotNil(t, m.Connect(context.Background()))
	assert.Eventually(t, c.IsRunning, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
