package application

import (
	"context"

	"github.com/KOMKZ/yogan-market/broker"
	"github.com/KOMKZ/yogan-market/health"
	"github.com/KOMKZ/yogan-market/middleware"
	"github.com/samber/do/v2"
)

// ShoppingService the shopping process: consumer plus health endpoints
type ShoppingService struct {
	Server   *HTTPServer
	Consumer *broker.Consumer
	Broker   *broker.Manager
}

// SetupShopping wires the SHOPPING_QUEUE consumer onto the shopping
// repository namespace
func SetupShopping(ctx context.Context, b *BaseApplication) (*ShoppingService, error) {
	repo, err := openRepository(b)
	if err != nil {
		return nil, err
	}

	mgr, err := connectBroker(ctx, b)
	if err != nil {
		return nil, err
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

	return &ShoppingService{Server: server, Consumer: consumer, Broker: mgr}, nil
}

// RunShopping runs the shopping consumer until ctx is done or a signal arrives
func RunShopping(ctx context.Context, cfg *AppConfig) error {
	b, err := NewBase(RoleShopping, cfg)
	if err != nil {
		return err
	}

	svc, err := SetupShopping(ctx, b)
	if err != nil {
		b.shutdown()
		return err
	}
	return b.Run(ctx, svc.Server.Serve, func(ctx context.Context) error {
		return svc.Consumer.Run(ctx, svc.Broker)
	})
}
