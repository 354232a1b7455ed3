package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rail-service/bridge_service/pkg/logger"
	"github.com/rail-service/bridge_service/pkg/metrics"
)

const version = "1.0.0"

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// CoreHandlers contains health and metrics handlers
type CoreHandlers struct {
	storage   Pinger
	metrics   *metrics.Metrics
	logger    *logger.Logger
	startTime time.Time
}

// NewCoreHandlers creates a new core handlers instance
func NewCoreHandlers(storage Pinger, m *metrics.Metrics, logger *logger.Logger) *CoreHandlers {
	return &CoreHandlers{
		storage:   storage,
		metrics:   m,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthCheck represents a health check result
type HealthCheck struct {
	Service   string        `json:"service"`
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Health reports liveness; it never touches dependencies
func (h *CoreHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   version,
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Ready checks that the cache storage answers
func (h *CoreHandlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	check := h.checkStorage(ctx)
	status, statusCode := "ready", http.StatusOK
	if check.Status != "healthy" {
		status, statusCode = "not_ready", http.StatusServiceUnavailable
		h.logger.Warn("Readiness check failed", "error", check.Error)
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"checks":    map[string]HealthCheck{"cache_storage": check},
	})
}

func (h *CoreHandlers) checkStorage(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{Service: "cache_storage", Timestamp: start}

	err := h.storage.Ping(ctx)
	check.Latency = time.Since(start)
	if err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
	} else {
		check.Status = "healthy"
	}
	return check
}

// Metrics serves prometheus metrics
func (h *CoreHandlers) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
