package breaker

import (
	"context"
	"fmt"
	"strings"
)

// HealthChecker fails while any circuit is not Closed
type HealthChecker struct {
	breaker Breaker
}

// NewHealthChecker creates a breaker health checker
func NewHealthChecker(b Breaker) *HealthChecker {
	return &HealthChecker{breaker: b}
}

// Name 返回检查项名称
func (h *HealthChecker) Name() string {
	return "circuit_breakers"
}

// Check lists every open or half-open resource
func (h *HealthChecker) Check(ctx context.Context) error {
	var tripped []string
	for _, snap := range h.breaker.Snapshots() {
		if snap.State != StateClosed {
			tripped = append(tripped, snap.Resource+"="+snap.State.String())
		}
	}
	if len(tripped) > 0 {
		return fmt.Errorf("circuits not closed: %s", strings.Join(tripped, ", "))
	}
	return nil
}
