package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Dispatcher routes a decoded envelope to its handlers
type Dispatcher interface {
	Dispatch(ctx context.Context, env *event.Envelope) (handled bool, err error)
}

// Consumer consumes this service's queue into a Dispatcher.
// Each delivery is handled then acked, or nacked without requeue.
type Consumer struct {
	config     Config
	topology   Topology
	dispatcher Dispatcher
	logger     *logger.CtxZapLogger
	metrics    *Metrics
	tag        string

	mu      sync.RWMutex
	running bool
}

// ConsumerOption configures a Consumer
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the logger
func WithConsumerLogger(l *logger.CtxZapLogger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConsumerMetrics records delivery outcomes
func WithConsumerMetrics(m *Metrics) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// WithConsumerTag sets the AMQP consumer tag (default: broker generated)
func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) {
		c.tag = tag
	}
}

// NewConsumer creates a consumer for cfg.Service
func NewConsumer(cfg Config, dispatcher Dispatcher, opts ...ConsumerOption) *Consumer {
	cfg.ApplyDefaults()
	c := &Consumer{
		config:     cfg,
		topology:   cfg.Topology(),
		dispatcher: dispatcher,
		logger:     logger.GetLogger("broker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe declares and binds the service queue and processes deliveries
// until ctx ends or the delivery channel closes. A nil channel logs and
// returns nil.
func (c *Consumer) Subscribe(ctx context.Context, ch Channel) error {
	if ch == nil {
		c.logger.WarnCtx(ctx, "⚠️  No broker channel, subscription skipped",
			zap.String("service", c.config.Service))
		return nil
	}

	queue, exclusive, err := c.topology.DeclareQueue(ch, c.config.Service)
	if err != nil {
		return err
	}

	if err := ch.Qos(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, c.tag, false, exclusive, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	c.setRunning(true)
	defer c.setRunning(false)

	c.logger.InfoCtx(ctx, "✅ Consumer subscribed",
		zap.String("service", c.config.Service),
		zap.String("queue", queue),
		zap.Strings("binding_keys", c.topology.Queues[c.config.Service].BindingKeys))

	for {
		select {
		case <-ctx.Done():
			c.logger.DebugCtx(ctx, "consumer stopped by context", zap.String("queue", queue))
			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.logger.WarnCtx(ctx, "⚠️  Delivery channel closed", zap.String("queue", queue))
				return nil
			}
			c.handle(ctx, queue, d)
		}
	}
}

// Run subscribes on the source's current channel and resubscribes after
// the channel drops, waiting ReconnectInterval while there is none.
func (c *Consumer) Run(ctx context.Context, source ChannelSource) error {
	for {
		if ch := source.Channel(); ch != nil {
			if err := c.Subscribe(ctx, ch); err != nil {
				c.logger.ErrorCtx(ctx, "❌ Subscribe failed",
					zap.String("service", c.config.Service),
					zap.Error(err))
			}
		}

		timer := time.NewTimer(c.config.ReconnectInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// IsRunning reports whether a subscription is active
func (c *Consumer) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *Consumer) setRunning(v bool) {
	c.mu.Lock()
	c.running = v
	c.mu.Unlock()
}

// handle decodes, dispatches and settles one delivery
func (c *Consumer) handle(ctx context.Context, queue string, d amqp.Delivery) {
	fields := []zap.Field{
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.String("routing_key", d.RoutingKey),
	}

	env, err := event.Decode(d.Body)
	if err != nil {
		c.logger.ErrorCtx(ctx, "❌ Undecodable message rejected", append(fields, zap.Error(err))...)
		c.nack(ctx, d, fields)
		c.metrics.recordDelivery(ctx, queue, OutcomeDecodeError)
		return
	}
	env.DeliveryTag = d.DeliveryTag

	if env.TraceID != "" {
		ctx = logger.WithTraceID(ctx, env.TraceID)
	}
	fields = append(fields,
		zap.String("event", string(env.Event)),
		zap.String("user_id", env.Data.UserID))

	handled, err := c.dispatcher.Dispatch(ctx, env)
	switch {
	case err != nil:
		c.logger.ErrorCtx(ctx, "❌ Event handler failed, message rejected", append(fields, zap.Error(err))...)
		c.nack(ctx, d, fields)
		c.metrics.recordDelivery(ctx, queue, OutcomeNack)
	case !handled:
		c.logger.DebugCtx(ctx, "No handler for event, acked", fields...)
		c.ack(ctx, d, fields)
		c.metrics.recordDelivery(ctx, queue, OutcomeIgnored)
	default:
		c.ack(ctx, d, fields)
		c.metrics.recordDelivery(ctx, queue, OutcomeAck)
	}
}

func (c *Consumer) ack(ctx context.Context, d amqp.Delivery, fields []zap.Field) {
	if err := d.Ack(false); err != nil {
		c.logger.ErrorCtx(ctx, "ack failed", append(fields, zap.Error(err))...)
	}
}

func (c *Consumer) nack(ctx context.Context, d amqp.Delivery, fields []zap.Field) {
	if err := d.Nack(false, false); err != nil {
		c.logger.ErrorCtx(ctx, "nack failed", append(fields, zap.Error(err))...)
	}
}
