package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"urlsentry/internal/api/handlers"
	apimiddleware "urlsentry/internal/api/middleware"
	"urlsentry/internal/config"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		// URL analysis endpoints
		api.Route("/url", func(url chi.Router) {
			url.Post("/analyze", r.handlers.URL.Analyze)
			url.Post("/analyze-batch", r.handlers.URL.AnalyzeBatch)
			url.Post("/report", r.handlers.URL.Report)
		})

		// Model registry (read side)
		api.Get("/models", r.handlers.Model.List)

		// Aggregate stats
		api.Get("/stats", r.handlers.Stats.Get)

		// Live detection feed
		api.Get("/stream", r.handlers.Streaming.HandleWebSocket)
		api.Get("/stream/stats", r.handlers.Streaming.GetStats)

		// Internal endpoints for trusted backend producers
		api.Route("/internal", func(internal chi.Router) {
			internal.Use(apimiddleware.AdminAuth(r.config.Auth.AdminToken))

			internal.Post("/feedback-batch", r.handlers.Feedback.Batch)
			internal.Post("/feedback/drain", r.handlers.Feedback.Drain)

			internal.Route("/model", func(model chi.Router) {
				model.Post("/register", r.handlers.Model.Register)
				model.Post("/evaluation", r.handlers.Model.TrackEvaluation)
				model.Put("/{name}/metrics", r.handlers.Model.UpdateMetrics)
			})
		})
	})

	return router
}
