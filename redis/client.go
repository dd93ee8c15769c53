// Package redis creates the Redis client backing customer documents.
package redis

import (
	"context"
	"fmt"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient creates a client and pings it
func NewClient(ctx context.Context, cfg Config, log *logger.CtxZapLogger) (*redis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	log.InfoCtx(ctx, "✅ Redis connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return client, nil
}
