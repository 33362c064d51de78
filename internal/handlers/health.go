package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"go.uber.org/zap"
)

// Pinger is a dependency the readiness probe checks.
type Pinger func(ctx context.Context) error

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	environment string
	checks      map[string]Pinger
	log         *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(environment string, checks map[string]Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		checks:      checks,
		log:         log,
	}
}

// Health reports that the process is serving requests.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "ReqForge API Server is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"environment": h.environment,
	})
}

// Ready pings every dependency and fails if any of them is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			apierrors.ServiceUnavailable(c, name+" is unavailable")
			return
		}
		status[name] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"checks":  status,
	})
}
