package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterProvider wraps the process meter provider and its shutdown
type MeterProvider struct {
	provider metric.MeterProvider
	shutdown func(context.Context) error
}

// NewMeterProvider installs a stdout-exporting SDK provider when metrics
// are enabled, otherwise a no-op provider. The provider becomes the otel global.
func NewMeterProvider(cfg MetricsConfig) (*MeterProvider, error) {
	if !cfg.Enabled {
		return &MeterProvider{
			provider: noop.NewMeterProvider(),
			shutdown: func(context.Context) error { return nil },
		}, nil
	}

	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
	)
	otel.SetMeterProvider(provider)

	return &MeterProvider{provider: provider, shutdown: provider.Shutdown}, nil
}

// Meter returns a named meter
func (m *MeterProvider) Meter(name string) metric.Meter {
	return m.provider.Meter(name)
}

// Shutdown flushes pending metrics
func (m *MeterProvider) Shutdown(ctx context.Context) error {
	return m.shutdown(ctx)
}
