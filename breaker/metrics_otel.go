package breaker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SnapshotProvider exposes breaker states to the state gauge
type SnapshotProvider interface {
	Snapshots() []CircuitSnapshot
}

// OTelBreakerMetrics records bus events as OpenTelemetry instruments
type OTelBreakerMetrics struct {
	callsTotal       metric.Int64Counter
	rejectionsTotal  metric.Int64Counter
	transitionsTotal metric.Int64Counter
	fallbacksTotal   metric.Int64Counter
	latency          metric.Float64Histogram
	stateGauge       metric.Int64ObservableGauge // 0=closed, 1=open, 2=half-open
}

// NewOTelBreakerMetrics registers the instruments on meter
func NewOTelBreakerMetrics(meter metric.Meter, states SnapshotProvider) (*OTelBreakerMetrics, error) {
	m := &OTelBreakerMetrics{}
	var err error

	m.callsTotal, err = meter.Int64Counter("breaker_calls_total",
		metric.WithDescription("Circuit breaker protected calls by outcome"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}

	m.rejectionsTotal, err = meter.Int64Counter("breaker_rejections_total",
		metric.WithDescription("Calls short-circuited by an open breaker"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}

	m.transitionsTotal, err = meter.Int64Counter("breaker_state_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"))
	if err != nil {
		return nil, err
	}

	m.fallbacksTotal, err = meter.Int64Counter("breaker_fallbacks_total",
		metric.WithDescription("Fallback invocations by outcome"))
	if err != nil {
		return nil, err
	}

	m.latency, err = meter.Float64Histogram("breaker_call_duration_seconds",
		metric.WithDescription("Protected call latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.stateGauge, err = meter.Int64ObservableGauge("breaker_state",
		metric.WithDescription("Current breaker state (0=closed, 1=open, 2=half-open)"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if states == nil {
				return nil
			}
			for _, snap := range states.Snapshots() {
				o.Observe(int64(snap.State), metric.WithAttributes(attribute.String("resource", snap.Resource)))
			}
			return nil
		}))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// OnEvent implements EventListener
func (m *OTelBreakerMetrics) OnEvent(event Event) {
	ctx := context.Background()
	resource := attribute.String("resource", event.Resource())

	switch e := event.(type) {
	case *CallEvent:
		outcome := "success"
		switch e.Type() {
		case EventCallFailure:
			outcome = "failure"
		case EventCallTimeout:
			outcome = "timeout"
		}
		m.callsTotal.Add(ctx, 1, metric.WithAttributes(resource, attribute.String("outcome", outcome)))
		m.latency.Record(ctx, e.Duration.Seconds(), metric.WithAttributes(resource))

	case *RejectedEvent:
		m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(resource))

	case *StateChangedEvent:
		m.transitionsTotal.Add(ctx, 1, metric.WithAttributes(resource,
			attribute.String("from", e.FromState.String()),
			attribute.String("to", e.ToState.String())))

	case *FallbackEvent:
		outcome := "success"
		if !e.Success {
			outcome = "failure"
		}
		m.fallbacksTotal.Add(ctx, 1, metric.WithAttributes(resource, attribute.String("outcome", outcome)))
	}
}
