package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HealthChecker for Redis
type HealthChecker struct {
	client redis.UniversalClient
}

// NewHealthChecker creates a Redis health checker
func NewHealthChecker(client redis.UniversalClient) *HealthChecker {
	return &HealthChecker{client: client}
}

// Name Check item name
func (h *HealthChecker) Name() string {
	return "redis"
}

// Check pings Redis
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
