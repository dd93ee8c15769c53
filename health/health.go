// Package health 提供统一的健康检查能力
package health

import (
	"context"
	"time"
)

// Status 健康状态枚举
type Status string

const (
	// StatusHealthy 健康
	StatusHealthy Status = "healthy"
	// StatusDegraded 降级（部分功能不可用）
	StatusDegraded Status = "degraded"
	// StatusUnhealthy 不健康
	StatusUnhealthy Status = "unhealthy"
)

// Checker one health check item
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckResult 单个检查项的结果
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Response 健康检查响应
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
}

// IsHealthy 判断整体是否健康
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// IsDegraded 判断是否降级
func (r *Response) IsDegraded() bool {
	return r.Status == StatusDegraded
}

// Config 健康检查配置
type Config struct {
	Timeout time.Duration `mapstructure:"timeout"`
}
