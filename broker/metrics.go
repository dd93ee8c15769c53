package broker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Delivery outcomes
const (
	OutcomeAck         = "ack"
	OutcomeNack        = "nack"
	OutcomeDecodeError = "decode_error"
	OutcomeIgnored     = "ignored"
)

// Metrics broker instruments; a nil *Metrics records nothing
type Metrics struct {
	published  metric.Int64Counter
	deliveries metric.Int64Counter
}

// NewMetrics registers broker instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	published, err := meter.Int64Counter("broker_published_total",
		metric.WithDescription("Envelopes published, by routing key and result"))
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("broker_deliveries_total",
		metric.WithDescription("Deliveries consumed, by queue and outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{published: published, deliveries: deliveries}, nil
}

func (m *Metrics) recordPublish(ctx context.Context, routingKey string, ok bool) {
	if m == nil {
		return
	}
	m.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("routing_key", routingKey),
		attribute.Bool("success", ok)))
}

func (m *Metrics) recordDelivery(ctx context.Context, queue, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("queue", queue),
		attribute.String("outcome", outcome)))
}
