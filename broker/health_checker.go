package broker

import "context"

// HealthChecker reports the broker channel state
type HealthChecker struct {
	manager *Manager
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(manager *Manager) *HealthChecker {
	return &HealthChecker{manager: manager}
}

// Name 返回检查项名称
func (h *HealthChecker) Name() string {
	return "broker"
}

// Check returns ErrNotConnected while running without a channel
func (h *HealthChecker) Check(ctx context.Context) error {
	return h.manager.Ping(ctx)
}
