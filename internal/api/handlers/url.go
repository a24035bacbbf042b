package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/domain/services"
	"urlsentry/pkg/logger"
)

// URLHandler handles URL analysis and reporting requests
type URLHandler struct {
	analysis *services.AnalysisService
	feedback *services.FeedbackService
	logger   *logger.Logger
}

// NewURLHandler creates a new URL handler
func NewURLHandler(analysis *services.AnalysisService, feedback *services.FeedbackService, log *logger.Logger) *URLHandler {
	return &URLHandler{
		analysis: analysis,
		feedback: feedback,
		logger:   log.WithComponent("url-handler"),
	}
}

// Analyze handles POST /api/v1/url/analyze
func (h *URLHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := h.analysis.Analyze(r.Context(), &req, requestMeta(r))
	if err != nil {
		if errors.Is(err, models.ErrInvalidURL) {
			h.respondError(w, http.StatusBadRequest, "invalid url")
			return
		}
		h.logger.Error().Err(err).Str("url", req.URL).Msg("failed to analyze URL")
		h.respondError(w, http.StatusInternalServerError, "failed to analyze URL")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/url/analyze-batch
func (h *URLHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls array is required")
		return
	}

	if len(req.URLs) > services.MaxBatchSize {
		h.respondError(w, http.StatusBadRequest, "maximum 20 URLs per batch")
		return
	}

	result, err := h.analysis.AnalyzeBatch(r.Context(), &req, requestMeta(r))
	if err != nil {
		h.logger.Error().Err(err).Int("count", len(req.URLs)).Msg("failed to analyze URL batch")
		h.respondError(w, http.StatusInternalServerError, "failed to analyze URLs")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Report handles POST /api/v1/url/report
func (h *URLHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" || req.ReportType == "" {
		h.respondError(w, http.StatusBadRequest, "url and reportType are required")
		return
	}

	report, err := h.feedback.SubmitReport(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidReportType):
			h.respondError(w, http.StatusBadRequest, "invalid report type")
		case errors.Is(err, models.ErrInvalidURL):
			h.respondError(w, http.StatusBadRequest, "invalid url")
		default:
			h.logger.Error().Err(err).Str("url", req.URL).Msg("failed to submit report")
			h.respondError(w, http.StatusInternalServerError, "failed to submit report")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"report":  report,
		"message": "Thank you for your report. It will be reviewed.",
	})
}

func requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (h *URLHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *URLHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
