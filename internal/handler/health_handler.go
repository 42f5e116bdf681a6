package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"stays-be/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health, probing the database and Redis
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.container.GetDB().Health(r.Context()); err != nil {
		logger.WithError(err).Error("Database health check failed")
		checks["database"] = err.Error()
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	if err := h.container.GetRedis().Health(r.Context()); err != nil {
		logger.WithError(err).Error("Redis health check failed")
		checks["redis"] = err.Error()
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   "stays-be",
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode health check response")
	}
}
