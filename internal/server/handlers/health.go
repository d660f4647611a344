package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/featurereg/internal/server/response"
	"github.com/agentstation/featurereg/pkg/constants"
)

// HandleHealth handles GET /health.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "featurereg",
	})
}

// HandleReady handles GET /api/v1/ready. The service is ready once an
// analysis pass over the registry and the store has succeeded.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DefaultTimeout)
	defer cancel()

	res, err := h.current(ctx, false)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		response.ServiceUnavailable(w, "analysis inputs are not available")
		return
	}

	response.OK(w, map[string]any{
		"status":           "ready",
		"lastAnalyzedAt":   res.Metadata.AnalyzedAt,
		"cache":            h.cache.Stats(ctx),
		"events":           h.broker.Stats(),
		"websocketClients": h.wsHub.ClientCount(),
		"sseClients":       h.sse.ClientCount(),
	})
}

// HandleStats handles GET /api/v1/stats.
// @Summary Server statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	data := map[string]any{
		"runtime": map[string]any{
			"uptimeSeconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":    runtime.NumGoroutine(),
			"memoryMb":      mem.Alloc / 1024 / 1024,
		},
		"events": h.broker.Stats(),
		"realtime": map[string]any{
			"websocketClients": h.wsHub.ClientCount(),
			"sseClients":       h.sse.ClientCount(),
		},
		"cache": h.cache.Stats(r.Context()),
	}
	if res, ok := h.client.Last(); ok {
		data["analysis"] = res.Stats
	}
	response.OK(w, data)
}
