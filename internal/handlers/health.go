package handlers

import (
	"context"
	"net/http"
	"time"

	"course-matcher/internal/circuitbreaker"
)

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version"`
	Cache     string                `json:"cache_status"`
	Records   string                `json:"records_status"`
	Breaker   *circuitbreaker.Stats `json:"oracle_breaker,omitempty"`
}

// HealthCheck reports dependency health
// @Summary Health check
// @Description Reports the cache store, match record store and oracle breaker state
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse "Service healthy"
// @Failure 503 {object} HealthResponse "Cache store unreachable"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Cache:     "healthy",
		Records:   "disabled",
	}
	status := http.StatusOK

	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			health.Cache = "unhealthy"
			health.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	// Comparisons still work without the record store
	if h.records != nil {
		health.Records = "healthy"
		if err := h.records.Health(ctx); err != nil {
			health.Records = "unhealthy"
			if health.Status == "healthy" {
				health.Status = "degraded"
			}
		}
	}

	if h.breaker != nil {
		health.Breaker = h.breaker.BreakerStats()
		if health.Breaker != nil && health.Breaker.State == circuitbreaker.StateOpen.String() && health.Status == "healthy" {
			health.Status = "degraded"
		}
	}

	h.sendJSONStatus(w, status, health)
}
