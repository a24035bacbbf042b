package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"urlsentry/internal/api"
	"urlsentry/internal/api/handlers"
	"urlsentry/internal/config"
	"urlsentry/internal/domain/services"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/internal/infrastructure/database"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/internal/streaming"
	"urlsentry/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting urlsentry")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer db.Close()

	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisCache.Close()

	// Initialize repositories
	repos := repository.NewRepositories(db.Pool())
	log.Info().Msg("repositories initialized")

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local broadcast only")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()

	wsHub := streaming.NewWebSocketHub(eventBus, log)
	go wsHub.Run(ctx)

	// Initialize services
	extractor := services.NewFeatureExtractor()
	scorer := services.NewHeuristicScorer()
	classifier := services.NewClassifierClient(cfg.Classifiers, log)

	analysisService := services.NewAnalysisService(extractor, scorer, classifier, repos, redisCache, eventBus, log)
	feedbackService := services.NewFeedbackService(repos, redisCache, log)
	modelService := services.NewModelService(repos, log)

	drainer := services.NewDrainer(
		repos,
		redisCache,
		cfg.Classifiers.Standard.ModelName,
		cfg.Feedback.DrainInterval,
		cfg.Feedback.BatchSize,
		log,
	)

	go func() {
		if err := drainer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("drainer stopped with error")
		}
	}()

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Analysis: analysisService,
		Feedback: feedbackService,
		Drainer:  drainer,
		Models:   modelService,
		Cache:    redisCache,
		Repos:    repos,
		Hub:      wsHub,
		Logger:   log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	drainer.Stop()

	log.Info().Msg("shutdown complete")
}
