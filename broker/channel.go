// Package broker connects to the AMQP broker, declares the marketplace
// topology, publishes event envelopes and consumes them into a dispatcher.
package broker

import (
	"context"
	"fmt"
	"io"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel the subset of *amqp.Channel the marketplace uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

var _ Channel = (*amqp.Channel)(nil)

// ChannelSource provides the current channel (nil when disconnected)
type ChannelSource interface {
	Channel() Channel
}

// Dialer opens a connection and a channel on it.
// The returned closer releases the connection.
type Dialer func(ctx context.Context, url string) (Channel, io.Closer, error)

// DialAMQP dials a real broker
func DialAMQP(ctx context.Context, url string) (Channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	return ch, conn, nil
}
