package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/yogan-market/broker"
	"github.com/KOMKZ/yogan-market/customer"
	"github.com/KOMKZ/yogan-market/event"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/metric"
)

// connectBroker dials the broker and schedules reconnects. A failed dial
// leaves the manager without a channel; the process keeps running.
func connectBroker(ctx context.Context, b *BaseApplication) (*broker.Manager, error) {
	mgr, err := do.Invoke[*broker.Manager](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("create broker manager: %w", err)
	}
	b.OnClose("broker", func(context.Context) error { return mgr.Close() })

	mgr.Connect(ctx)
	if err := mgr.StartReconnect(ctx); err != nil {
		return nil, err
	}

	do.MustInvoke[*health.Aggregator](b.Injector()).RegisterOptional(broker.NewHealthChecker(mgr))
	return mgr, nil
}

// openRepository resolves the profile repository and, when it is backed by
// Redis, registers the client's health check and close
func openRepository(b *BaseApplication) (customer.Repository, error) {
	repo, err := do.Invoke[customer.Repository](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("open profile repository: %w", err)
	}

	if b.Config().Redis.Enabled() {
		client := do.MustInvoke[*goredis.Client](b.Injector())
		b.OnClose("redis", func(context.Context) error { return client.Close() })
		do.MustInvoke[*health.Aggregator](b.Injector()).Register(redis.NewHealthChecker(client))
	}
	return repo, nil
}

// newConsumer builds the dispatcher with the merge handlers and the queue consumer
func newConsumer(b *BaseApplication, mgr *broker.Manager, repo customer.Repository) (*broker.Consumer, error) {
	log := logger.GetLogger("event")

	meter := do.MustInvoke[metric.Meter](b.Injector())
	metricsInterceptor, err := event.MetricsInterceptor(meter)
	if err != nil {
		return nil, fmt.Errorf("create event metrics: %w", err)
	}

	dispatcher := event.NewDispatcher(
		event.WithLogger(log),
		event.WithInterceptors(
			event.RecoveryInterceptor(),
			event.LoggingInterceptor(log),
			metricsInterceptor,
		),
	)
	customer.RegisterHandlers(dispatcher, repo, b.Config().Customer.WishlistMode)

	brokerMetrics, err := do.Invoke[*broker.Metrics](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("create broker metrics: %w", err)
	}

	return broker.NewConsumer(mgr.Config(), dispatcher,
		broker.WithConsumerLogger(logger.GetLogger("broker")),
		broker.WithConsumerMetrics(brokerMetrics),
		broker.WithConsumerTag(string(b.role))), nil
}
