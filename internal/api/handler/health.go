package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/health"
)

// readiness is satisfied by *health.Checker.
type readiness interface {
	Ready() bool
	Snapshot() map[string]health.Status
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checker readiness
}

// NewHealthHandler creates a HealthHandler. checker may be nil, in which
// case the node always reports ready.
func NewHealthHandler(checker readiness) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Register mounts /healthz and /readyz at the router root.
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz: 503 while any dependency is degraded.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.checker == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	deps := h.checker.Snapshot()
	if !h.checker.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "dependencies": deps})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "dependencies": deps})
}
