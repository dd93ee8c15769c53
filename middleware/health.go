package middleware

import (
	"net/http"

	"github.com/KOMKZ/yogan-market/health"
	"github.com/gin-gonic/gin"
)

// HealthHandler exposes the aggregator over HTTP
type HealthHandler struct {
	aggregator *health.Aggregator
}

// NewHealthHandler creates a health handler
func NewHealthHandler(aggregator *health.Aggregator) *HealthHandler {
	return &HealthHandler{aggregator: aggregator}
}

// Register mounts /health, /health/live and /health/ready
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/health", h.Check)
	r.GET("/health/live", h.Liveness)
	r.GET("/health/ready", h.Readiness)
}

// Check full report; degraded still answers 200
func (h *HealthHandler) Check(c *gin.Context) {
	resp := h.aggregator.Check(c.Request.Context())
	status := http.StatusOK
	if resp.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Liveness the process is up
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
}

// Readiness only healthy accepts traffic
func (h *HealthHandler) Readiness(c *gin.Context) {
	resp := h.aggregator.Check(c.Request.Context())
	if resp.Status != health.StatusHealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": resp.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": resp.Status})
}
