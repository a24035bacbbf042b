package handlers

import (
	"urlsentry/internal/domain/services"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/internal/streaming"
	"urlsentry/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	URL       *URLHandler
	Feedback  *FeedbackHandler
	Model     *ModelHandler
	Stats     *StatsHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Analysis *services.AnalysisService
	Feedback *services.FeedbackService
	Drainer  *services.Drainer
	Models   *services.ModelService
	Cache    *cache.RedisCache
	Repos    *repository.Repositories
	Hub      *streaming.WebSocketHub
	Logger   *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Cache, deps.Repos, deps.Logger),
		URL:       NewURLHandler(deps.Analysis, deps.Feedback, deps.Logger),
		Feedback:  NewFeedbackHandler(deps.Feedback, deps.Drainer, deps.Logger),
		Model:     NewModelHandler(deps.Models, deps.Logger),
		Stats:     NewStatsHandler(deps.Repos, deps.Feedback, deps.Logger),
		Streaming: NewStreamingHandler(deps.Hub, deps.Logger),
	}
}
