package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
)

type HealthHandler struct {
	db          database.Database
	redis       database.RedisClient
	version     string
	environment string
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Services    map[string]string `json:"services"`
	Uptime      string            `json:"uptime"`
}

type ReadinessStatus struct {
	Ready    bool              `json:"ready"`
	Services map[string]string `json:"services"`
}

func NewHealthHandler(db database.Database, redis database.RedisClient, version, environment string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version, environment: environment}
}

func (h *HealthHandler) Health(c *gin.Context) {
	services := map[string]string{
		"database": h.checkDatabase(),
		"redis":    h.checkRedis(c.Request.Context()),
	}

	status := "healthy"
	for _, serviceStatus := range services {
		if serviceStatus != "healthy" && serviceStatus != "not_configured" {
			status = "degraded"
			break
		}
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthStatus{
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		Environment: h.environment,
		Services:    services,
		Uptime:      time.Since(startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	services := map[string]string{
		"database": h.checkDatabase(),
	}

	ready := true
	for _, serviceStatus := range services {
		if serviceStatus != "healthy" {
			ready = false
			break
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, ReadinessStatus{Ready: ready, Services: services})
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(startTime).String(),
	})
}

func (h *HealthHandler) checkDatabase() string {
	if h.db == nil {
		return "not_configured"
	}
	if err := h.db.Ping(); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if h.redis == nil {
		return "not_configured"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.redis.Ping(pingCtx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

var startTime = time.Now()
