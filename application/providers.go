package application

import (
	"context"

	"github.com/KOMKZ/yogan-market/breaker"
	"github.com/KOMKZ/yogan-market/broker"
	"github.com/KOMKZ/yogan-market/customer"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/KOMKZ/yogan-market/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/metric"
)

// registerProviders registers lazy providers for every component a role may use
func registerProviders(injector do.Injector, role Role) {
	do.Provide(injector, provideMeterProvider)
	do.Provide(injector, provideMeter)
	do.Provide(injector, provideHTTPMetrics)
	do.Provide(injector, provideHealthAggregator)
	do.Provide(injector, provideBreaker)
	do.Provide(injector, provideTokenManager)
	do.Provide(injector, provideBroker(role))
	do.Provide(injector, provideBrokerMetrics)
	do.Provide(injector, provideRedisClient)
	do.Provide(injector, provideRepository(role))
}

func provideMeterProvider(i do.Injector) (*MeterProvider, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return NewMeterProvider(cfg.Metrics)
}

func provideMeter(i do.Injector) (metric.Meter, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	mp, err := do.Invoke[*MeterProvider](i)
	if err != nil {
		return nil, err
	}
	return mp.Meter(cfg.Metrics.ServiceName), nil
}

func provideHTTPMetrics(i do.Injector) (*middleware.HTTPMetrics, error) {
	meter, err := do.Invoke[metric.Meter](i)
	if err != nil {
		return nil, err
	}
	return middleware.NewHTTPMetrics(meter)
}

func provideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	agg := health.NewAggregator(cfg.Health.Timeout)
	agg.SetMetadata("service", cfg.Metrics.ServiceName)
	return agg, nil
}

func provideBreaker(i do.Injector) (*breaker.Manager, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	meter, err := do.Invoke[metric.Meter](i)
	if err != nil {
		return nil, err
	}
	return breaker.NewManager(cfg.Breaker,
		breaker.WithLogger(logger.GetLogger("breaker")),
		breaker.WithMeter(meter))
}

func provideTokenManager(i do.Injector) (jwt.TokenManager, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return jwt.NewTokenManager(cfg.JWT, logger.GetLogger("jwt"))
}

// provideBroker creates the broker manager for role's queue; it does not dial
func provideBroker(role Role) do.Provider[*broker.Manager] {
	return func(i do.Injector) (*broker.Manager, error) {
		cfg := do.MustInvoke[*AppConfig](i)
		bc := cfg.Broker
		bc.Service = string(role)
		return broker.NewManager(bc, broker.WithLogger(logger.GetLogger("broker")))
	}
}

func provideBrokerMetrics(i do.Injector) (*broker.Metrics, error) {
	meter, err := do.Invoke[metric.Meter](i)
	if err != nil {
		return nil, err
	}
	return broker.NewMetrics(meter)
}

func provideRedisClient(i do.Injector) (*goredis.Client, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return redis.NewClient(context.Background(), cfg.Redis, logger.GetLogger("redis"))
}

// provideRepository stores profiles in Redis, or in memory when no Redis
// address is configured. Roles other than customer keep their copy under
// their own namespace.
func provideRepository(role Role) do.Provider[customer.Repository] {
	return func(i do.Injector) (customer.Repository, error) {
		cfg := do.MustInvoke[*AppConfig](i)
		if !cfg.Redis.Enabled() {
			logger.GetLogger(string(role)).WarnCtx(context.Background(),
				"⚠️  Redis not configured, profiles are kept in memory")
			return customer.NewMemoryRepository(), nil
		}

		client, err := do.Invoke[*goredis.Client](i)
		if err != nil {
			return nil, err
		}
		prefix := cfg.Redis.KeyPrefix
		if role != RoleCustomer {
			prefix += string(role) + ":"
		}
		return customer.NewRedisRepository(client, prefix), nil
	}
}
