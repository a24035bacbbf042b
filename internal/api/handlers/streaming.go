package handlers

import (
	"encoding/json"
	"net/http"

	"urlsentry/internal/streaming"
	"urlsentry/pkg/logger"
)

// StreamingHandler exposes the live detection feed
type StreamingHandler struct {
	hub    *streaming.WebSocketHub
	logger *logger.Logger
}

// NewStreamingHandler creates a new streaming handler
func NewStreamingHandler(hub *streaming.WebSocketHub, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		hub:    hub,
		logger: log.WithComponent("streaming-handler"),
	}
}

// HandleWebSocket handles GET /api/v1/stream
func (h *StreamingHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, `{"error":"streaming not enabled"}`, http.StatusServiceUnavailable)
		return
	}
	h.hub.ServeWebSocket(w, r)
}

// GetStats handles GET /api/v1/stream/stats
func (h *StreamingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"connected_clients": clients,
	})
}
