package handler

import (
	"net/http"
	"time"

	"chamber-v2/internal/container"
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
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.container.GetLogger()

	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Version:      "1.0.0",
		Service:      "chamber-v2",
		Dependencies: map[string]string{},
	}
	status := http.StatusOK

	if err := h.container.DB.Health(ctx); err != nil {
		logger.WithError(err).Error("Database health check failed")
		response.Status = "unhealthy"
		response.Dependencies["postgres"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		response.Dependencies["postgres"] = "up"
	}

	if h.container.HasRedis() {
		if err := h.container.RedisClient.Health(ctx); err != nil {
			logger.WithError(err).Warn("Redis health check failed")
			response.Dependencies["redis"] = "down"
		} else {
			response.Dependencies["redis"] = "up"
		}
	} else {
		response.Dependencies["redis"] = "disabled"
	}

	respondJSON(w, status, response)
}
