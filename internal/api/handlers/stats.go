package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"urlsentry/internal/domain/services"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/pkg/logger"
)

// StatsHandler serves aggregate pipeline statistics
type StatsHandler struct {
	repos    *repository.Repositories
	feedback *services.FeedbackService
	logger   *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(repos *repository.Repositories, feedback *services.FeedbackService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repos:    repos,
		feedback: feedback,
		logger:   log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	urlStats, err := h.repos.URLs.GetStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get url stats")
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	queueDepth, err := h.feedback.QueueDepth(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to get queue depth")
	}

	pendingFeedback, err := h.repos.Feedback.CountPending(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to count pending feedback")
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"urls":             urlStats,
		"queue_depth":      queueDepth,
		"pending_feedback": pendingFeedback,
		"generated_at":     time.Now().UTC(),
	})
}

func (h *StatsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *StatsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
