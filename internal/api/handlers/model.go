package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/domain/services"
	"urlsentry/pkg/logger"
)

// ModelHandler handles model registry and evaluation endpoints
type ModelHandler struct {
	models *services.ModelService
	logger *logger.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(modelService *services.ModelService, log *logger.Logger) *ModelHandler {
	return &ModelHandler{
		models: modelService,
		logger: log.WithComponent("model-handler"),
	}
}

// Register handles POST /api/v1/internal/model/register
func (h *ModelHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	model, err := h.models.RegisterOrUpdate(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("model", req.Name).Msg("failed to register model")
		h.respondError(w, http.StatusInternalServerError, "failed to register model")
		return
	}

	h.respondJSON(w, http.StatusOK, model)
}

// UpdateMetrics handles PUT /api/v1/internal/model/{name}/metrics
func (h *ModelHandler) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "model name is required")
		return
	}

	var metrics models.ModelMetrics
	if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.models.UpdateMetrics(r.Context(), name, metrics); err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			h.respondError(w, http.StatusNotFound, "model not found")
			return
		}
		h.logger.Error().Err(err).Str("model", name).Msg("failed to update model metrics")
		h.respondError(w, http.StatusInternalServerError, "failed to update metrics")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// TrackEvaluation handles POST /api/v1/internal/model/evaluation
func (h *ModelHandler) TrackEvaluation(w http.ResponseWriter, r *http.Request) {
	var req models.TrackEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ModelName == "" || req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "model_name and url are required")
		return
	}

	eval, err := h.models.TrackEvaluation(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrModelNotFound):
			h.respondError(w, http.StatusNotFound, "model not found")
		case errors.Is(err, models.ErrInvalidURL):
			h.respondError(w, http.StatusBadRequest, "invalid url")
		default:
			h.logger.Error().Err(err).Str("model", req.ModelName).Msg("failed to track evaluation")
			h.respondError(w, http.StatusInternalServerError, "failed to track evaluation")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, eval)
}

// List handles GET /api/v1/models
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.models.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list models")
		h.respondError(w, http.StatusInternalServerError, "failed to list models")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"models": list,
		"count":  len(list),
	})
}

func (h *ModelHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ModelHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
