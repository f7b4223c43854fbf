package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint; overridden at build time
var Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	relay Relay
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(relay Relay) *HealthHandler {
	return &HealthHandler{
		relay: relay,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	ActiveRuns int64  `json:"active_runs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    Version,
		ActiveRuns: h.relay.ActiveRuns(),
	})
}
