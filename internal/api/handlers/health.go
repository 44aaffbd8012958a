package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
)

// Pinger reports whether the account store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// GeneratorProbe reports the health of the text generation backend
type GeneratorProbe interface {
	Health(ctx context.Context) (map[string]interface{}, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store     Pinger
	generator GeneratorProbe
	provider  string
	logger    *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, generator GeneratorProbe, provider string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		generator: generator,
		provider:  provider,
		logger:    log,
	}
}

// Health reports liveness together with the generation backend's health
// @Summary Service health
// @Description Liveness plus a probe of the text generation provider
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 500 {object} map[string]interface{} "Generation provider unhealthy"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"llm_provider": h.provider,
	}

	status, err := h.generator.Health(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Generation provider health check failed")
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		utils.WriteJSON(w, http.StatusInternalServerError, body)
		return
	}

	body["status"] = "healthy"
	body["provider_status"] = status
	utils.WriteSuccess(w, http.StatusOK, body)
}

// Healthz handles liveness probe
// @Summary Liveness probe
// @Description Check if the application is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is alive"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readyz handles readiness probe
// @Summary Readiness probe
// @Description Check if the account store is reachable
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Application is ready"
// @Failure 503 {object} utils.ErrorResponse "Service unavailable"
// @Router /readyz [get]
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorWithErr(err, "Store ping failed")
		utils.WriteErrorMessage(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Store unavailable")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]string{
		"status": "ready",
		"store":  "connected",
	})
}
