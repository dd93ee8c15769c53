// Package application wires the marketplace processes: the API gateway,
// the customer service and the shopping service consumer.
package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Role selects which process this binary runs as
type Role string

const (
	RoleGateway  Role = "gateway"
	RoleCustomer Role = "customer"
	RoleShopping Role = "shopping"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleGateway, RoleCustomer, RoleShopping:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Task a long-running unit supervised by BaseApplication.Run.
// It must return when ctx is done.
type Task func(ctx context.Context) error

type closer struct {
	name string
	fn   func(context.Context) error
}

// BaseApplication 应用核心框架
// Components are resolved through the samber/do injector; anything
// without a do-compatible Shutdown method registers a closer.
type BaseApplication struct {
	role     Role
	cfg      *AppConfig
	injector *do.RootScope
	logger   *logger.CtxZapLogger

	mu      sync.Mutex
	closers []closer
}

// NewBase validates cfg for role and registers the component providers
func NewBase(role Role, cfg *AppConfig) (*BaseApplication, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := cfg.Validate(role); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", role, err)
	}

	logger.InitManager(cfg.Logger)

	injector := do.New()
	do.ProvideValue(injector, cfg)
	registerProviders(injector, role)

	b := &BaseApplication{
		role:     role,
		cfg:      cfg,
		injector: injector,
		logger:   logger.GetLogger(string(role)),
	}

	b.logger.DebugCtx(context.Background(), "✅ 基础应用初始化完成",
		zap.String("role", string(role)),
		zap.Int("port", cfg.Server.Port))
	return b, nil
}

// Config returns the application config
func (b *BaseApplication) Config() *AppConfig {
	return b.cfg
}

// Injector 获取 samber/do 注入器
func (b *BaseApplication) Injector() *do.RootScope {
	return b.injector
}

// Logger returns the role logger
func (b *BaseApplication) Logger() *logger.CtxZapLogger {
	return b.logger
}

// OnClose registers fn to run at shutdown, in reverse registration order
func (b *BaseApplication) OnClose(name string, fn func(context.Context) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closers = append(b.closers, closer{name: name, fn: fn})
}

// Run starts every task and blocks until SIGINT/SIGTERM, ctx cancellation
// or the first task failure, then shuts components down.
func (b *BaseApplication) Run(ctx context.Context, tasks ...Task) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b.logger.InfoCtx(ctx, "🚀 Application started", zap.String("role", string(b.role)))

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	// Tasks normally return nil on cancellation; keep the group alive
	// until the process is asked to stop.
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		b.logger.ErrorCtx(context.Background(), "❌ Application task failed", zap.Error(runErr))
	}

	b.shutdown()
	return runErr
}

// shutdown runs the closers in reverse order, then the injector
func (b *BaseApplication) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Server.ShutdownTimeout)
	defer cancel()

	b.mu.Lock()
	closers := b.closers
	b.closers = nil
	b.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			b.logger.ErrorCtx(ctx, "Component close failed", zap.String("component", c.name), zap.Error(err))
		}
	}

	report := b.injector.ShutdownWithContext(ctx)
	b.logger.DebugCtx(ctx, "DI container shut down", zap.Any("report", report))

	b.logger.InfoCtx(ctx, "✅ 所有组件已关闭", zap.String("role", string(b.role)))
	logger.CloseAll()
}
