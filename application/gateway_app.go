package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/yogan-market/breaker"
	"github.com/KOMKZ/yogan-market/gateway"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/limiter"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/metric"
)

// SetupGateway builds the gateway HTTP server: the proxy routes, breaker
// snapshots and health endpoints.
func SetupGateway(b *BaseApplication) (*HTTPServer, error) {
	i := b.Injector()

	br, err := do.Invoke[*breaker.Manager](i)
	if err != nil {
		return nil, fmt.Errorf("create breaker: %w", err)
	}
	b.OnClose("breaker", func(context.Context) error {
		br.Close()
		return nil
	})

	tokens, err := do.Invoke[jwt.TokenManager](i)
	if err != nil {
		return nil, fmt.Errorf("create token manager: %w", err)
	}

	rl, err := limiter.New(b.Config().RateLimit,
		limiter.WithLogger(logger.GetLogger("limiter")),
		limiter.WithMeter(do.MustInvoke[metric.Meter](i)))
	if err != nil {
		return nil, err
	}

	router, err := gateway.NewRouter(b.Config().Gateway, br, tokens,
		gateway.WithLogger(logger.GetLogger("gateway")),
		gateway.WithMiddleware(middleware.RateLimit(rl)))
	if err != nil {
		return nil, err
	}

	agg := do.MustInvoke[*health.Aggregator](i)
	agg.RegisterOptional(breaker.NewHealthChecker(br))

	server, err := newServer(b)
	if err != nil {
		return nil, err
	}
	middleware.NewHealthHandler(agg).Register(server.Engine())
	router.Register(server.Engine())

	return server, nil
}

// RunGateway runs the API gateway until ctx is done or a signal arrives
func RunGateway(ctx context.Context, cfg *AppConfig) error {
	b, err := NewBase(RoleGateway, cfg)
	if err != nil {
		return err
	}

	server, err := SetupGateway(b)
	if err != nil {
		b.shutdown()
		return err
	}
	return b.Run(ctx, server.Serve)
}

// newServer creates the role's HTTP server with metrics middleware
func newServer(b *BaseApplication) (*HTTPServer, error) {
	metrics, err := do.Invoke[*middleware.HTTPMetrics](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("create http metrics: %w", err)
	}
	cfg := b.Config()
	return NewHTTPServer(cfg.Server, cfg.Middleware, metrics, logger.GetLogger("http")), nil
}
