package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/yogan-market/broker"
	"github.com/KOMKZ/yogan-market/customer"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/samber/do/v2"
)

// CustomerService the customer process: HTTP API plus queue consumer
type CustomerService struct {
	Server   *HTTPServer
	Consumer *broker.Consumer
	Broker   *broker.Manager
}

// SetupCustomer connects the broker, opens the repository and mounts the
// profile API behind JWT authentication.
func SetupCustomer(ctx context.Context, b *BaseApplication) (*CustomerService, error) {
	cfg := b.Config()

	repo, err := openRepository(b)
	if err != nil {
		return nil, err
	}

	mgr, err := connectBroker(ctx, b)
	if err != nil {
		return nil, err
	}

	brokerMetrics, err := do.Invoke[*broker.Metrics](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("create broker metrics: %w", err)
	}
	publisher := broker.NewEventPublisher(mgr, broker.NewPublisher(mgr.Config(),
		broker.WithPublisherLogger(logger.GetLogger("broker")),
		broker.WithPublisherMetrics(brokerMetrics)))

	svc := customer.NewService(repo, publisher, cfg.Customer, logger.GetLogger("customer"))

	tokens, err := do.Invoke[jwt.TokenManager](b.Injector())
	if err != nil {
		return nil, fmt.Errorf("create token manager: %w", err)
	}

	consumer, err := newConsumer(b, mgr, repo)
	if err != nil {
		return nil, err
	}

	server, err := newServer(b)
	if err != nil {
		return nil, err
	}
	middleware.NewHealthHandler(do.MustInvoke[*health.Aggregator](b.Injector())).Register(server.Engine())
	api := server.Engine().Group("/", middleware.JWT(tokens, middleware.JWTConfig{}))
	customer.NewHandler(svc).Register(api)

	return &CustomerService{Server: server, Consumer: consumer, Broker: mgr}, nil
}

// RunCustomer runs the customer service until ctx is done or a signal arrives
func RunCustomer(ctx context.Context, cfg *AppConfig) error {
	b, err := NewBase(RoleCustomer, cfg)
	if err != nil {
		return err
	}

	svc, err := SetupCustomer(ctx, b)
	if err != nil {
		b.shutdown()
		return err
	}
	return b.Run(ctx, svc.Server.Serve, func(ctx context.Context) error {
		return svc.Consumer.Run(ctx, svc.Broker)
	})
}
