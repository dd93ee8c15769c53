package broker

import (
	"context"
	"errors"

	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var errNilChannel = errors.New("no broker channel")

// Publisher publishes envelopes to the configured exchange.
// Publish never fails loudly: a false return and a log line are the only
// trace of a lost event, callers continue regardless.
type Publisher struct {
	config  Config
	logger  *logger.CtxZapLogger
	metrics *Metrics
}

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger
func WithPublisherLogger(l *logger.CtxZapLogger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPublisherMetrics records publish results
func WithPublisherMetrics(m *Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates a publisher for cfg.Exchange
func NewPublisher(cfg Config, opts ...PublisherOption) *Publisher {
	cfg.ApplyDefaults()
	p := &Publisher{
		config: cfg,
		logger: logger.GetLogger("broker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends env with routingKey as a persistent JSON message.
// Returns false when ch is nil, encoding fails or the broker rejects it.
func (p *Publisher) Publish(ctx context.Context, ch Channel, routingKey string, env *event.Envelope) bool {
	ok := p.publish(ctx, ch, routingKey, env)
	p.metrics.recordPublish(ctx, routingKey, ok)
	return ok
}

func (p *Publisher) publish(ctx context.Context, ch Channel, routingKey string, env *event.Envelope) bool {
	if ch == nil {
		p.logPublishError(ctx, routingKey, env, errNilChannel)
		return false
	}

	if env != nil && env.TraceID == "" {
		env.TraceID = logger.TraceIDFromContext(ctx)
	}

	body, err := event.Encode(env)
	if err != nil {
		p.logPublishError(ctx, routingKey, env, err)
		return false
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Type:         string(env.Event),
		Timestamp:    env.OccurredAt,
		Body:         body,
	}
	if env.TraceID != "" {
		msg.Headers = amqp.Table{"trace_id": env.TraceID}
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(pubCtx, p.config.Exchange, routingKey, false, false, msg); err != nil {
		p.logPublishError(ctx, routingKey, env, err)
		return false
	}

	p.logger.DebugCtx(ctx, "📤 Event published",
		zap.String("exchange", p.config.Exchange),
		zap.String("routing_key", routingKey),
		zap.String("event", string(env.Event)),
		zap.String("message_id", env.ID))
	return true
}

func (p *Publisher) logPublishError(ctx context.Context, routingKey string, env *event.Envelope, err error) {
	fields := []zap.Field{
		zap.String("exchange", p.config.Exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err),
	}
	if env != nil {
		fields = append(fields,
			zap.String("event", string(env.Event)),
			zap.String("user_id", env.Data.UserID))
	}
	p.logger.ErrorCtx(ctx, "❌ Event publish failed", fields...)
}

// EventPublisher publishes through the manager's current channel
type EventPublisher struct {
	source    ChannelSource
	publisher *Publisher
}

// NewEventPublisher binds publisher to source
func NewEventPublisher(source ChannelSource, publisher *Publisher) *EventPublisher {
	return &EventPublisher{source: source, publisher: publisher}
}

// PublishEvent publishes env with routingKey on the current channel
func (e *EventPublisher) PublishEvent(ctx context.Context, routingKey string, env *event.Envelope) bool {
	return e.publisher.Publish(ctx, e.source.Channel(), routingKey, env)
}
