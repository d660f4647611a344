package handlers

import "net/http"

// HandleWebSocket handles GET /api/v1/updates/ws.
// @Summary WebSocket updates
// @Description Pushes orphan, recommendation and review events
// @Tags updates
// @Success 101 "Switching Protocols"
// @Router /api/v1/updates/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsHub.ServeHTTP(w, r)
}

// HandleSSE handles GET /api/v1/updates/stream.
// @Summary SSE updates stream
// @Tags updates
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/v1/updates/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sse.ServeHTTP(w, r)
}
