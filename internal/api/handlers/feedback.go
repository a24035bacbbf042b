package handlers

import (
	"encoding/json"
	"net/http"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/domain/services"
	"urlsentry/pkg/logger"
)

// FeedbackHandler handles the internal feedback ingestion and drain
// endpoints
type FeedbackHandler struct {
	feedback *services.FeedbackService
	drainer  *services.Drainer
	logger   *logger.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedback *services.FeedbackService, drainer *services.Drainer, log *logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		drainer:  drainer,
		logger:   log.WithComponent("feedback-handler"),
	}
}

// Batch handles POST /api/v1/internal/feedback-batch
func (h *FeedbackHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.FeedbackBatch) == 0 {
		h.respondError(w, http.StatusBadRequest, "feedback_batch is required")
		return
	}

	result := h.feedback.ProcessBatch(r.Context(), &req)
	h.respondJSON(w, http.StatusOK, result)
}

// Drain handles POST /api/v1/internal/feedback/drain
func (h *FeedbackHandler) Drain(w http.ResponseWriter, r *http.Request) {
	result, err := h.drainer.Drain(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("on-demand drain failed")
		h.respondError(w, http.StatusInternalServerError, "failed to drain feedback queue")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *FeedbackHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *FeedbackHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
