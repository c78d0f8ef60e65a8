package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// PingFunc checks a backing dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler reports database connectivity.
type HealthHandler struct {
	ping        PingFunc
	environment string
	logger      *slog.Logger
	now         func() time.Time
}

func NewHealthHandler(ping PingFunc, environment string, logger *slog.Logger) *HealthHandler {
	if environment == "" {
		environment = "development"
	}
	return &HealthHandler{ping: ping, environment: environment, logger: logger, now: time.Now}
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} gin.H "healthy"
// @Failure 500 {object} gin.H "unhealthy"
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	timestamp := h.now().UTC().Format(time.RFC3339)
	if err := h.ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "unhealthy",
			"timestamp": timestamp,
			"database":  "disconnected",
			"error":     "Database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   timestamp,
		"database":    "connected",
		"environment": h.environment,
	})
}
