package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/casebridge/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds each readiness probe
	HealthCheckTimeout = 2 * time.Second
)

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TaxonomyStatus reports whether the issue taxonomy has been loaded.
type TaxonomyStatus interface {
	Loaded() bool
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	taxonomy  TaxonomyStatus
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(db Pinger, taxonomy TaxonomyStatus, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		taxonomy:  taxonomy,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Taxonomy string `json:"taxonomy"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. It is a liveness check with no dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready.
// Returns 200 when the database answers and the taxonomy is loaded, 503 otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Database: "connected", Taxonomy: "loaded"}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	if !h.taxonomy.Loaded() {
		resp.Taxonomy = "not_loaded"
		status = http.StatusServiceUnavailable
	}

	if status != http.StatusOK {
		resp.Status = "not_ready"
	}
	c.JSON(status, resp)
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
