package services

import (
	"context"
	"fmt"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/pkg/logger"
)

// ModelService manages the model registry and per-prediction evaluation
// tracking for the continuous-learning loop
type ModelService struct {
	repos  *repository.Repositories
	logger *logger.Logger
}

// NewModelService creates a model service
func NewModelService(repos *repository.Repositories, log *logger.Logger) *ModelService {
	return &ModelService{
		repos:  repos,
		logger: log.WithComponent("model-service"),
	}
}

// RegisterOrUpdate creates a model or patches the supplied fields of an
// existing registration
func (s *ModelService) RegisterOrUpdate(ctx context.Context, req *models.RegisterModelRequest) (*models.MLModel, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("model name is required")
	}

	model, err := s.repos.Models.RegisterOrUpdate(ctx, req.Name, req.Type, req.Version, req.Parameters)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("model", model.Name).Str("version", model.Version).Msg("model registered")
	return model, nil
}

// UpdateMetrics replaces the quality-metric snapshot of a model
func (s *ModelService) UpdateMetrics(ctx context.Context, name string, metrics models.ModelMetrics) error {
	return s.repos.Models.UpdateMetrics(ctx, name, metrics)
}

// List returns all registered models
func (s *ModelService) List(ctx context.Context) ([]*models.MLModel, error) {
	return s.repos.Models.List(ctx)
}

// GetByName returns one model, ErrModelNotFound when unregistered
func (s *ModelService) GetByName(ctx context.Context, name string) (*models.MLModel, error) {
	model, err := s.repos.Models.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, models.ErrModelNotFound
	}
	return model, nil
}

// TrackEvaluation appends an evaluation row for a prediction a model
// made. The URL is auto-registered when unseen, seeded with the
// predicted score so later analyses fold into the same row.
func (s *ModelService) TrackEvaluation(ctx context.Context, req *models.TrackEvaluationRequest) (*models.ModelEvaluation, error) {
	model, err := s.repos.Models.GetByName(ctx, req.ModelName)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, models.ErrModelNotFound
	}

	normalized, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	row, err := s.repos.URLs.GetByURL(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row, err = s.repos.URLs.Upsert(ctx, &models.AnalyzedURL{
			URL:           normalized,
			IsPhishing:    req.PredictedScore >= 60,
			ThreatScore:   req.PredictedScore,
			ScoringMethod: models.ScoringStandardV1,
			Tier:          models.TierStandard,
			Sources:       []string{"evaluation"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register url for evaluation: %w", err)
		}
	}

	eval, err := s.repos.Evaluations.Create(ctx, &models.ModelEvaluation{
		ModelID:        model.ID,
		URLID:          row.ID,
		PredictedScore: req.PredictedScore,
		ActualLabel:    req.ActualLabel,
	})
	if err != nil {
		return nil, err
	}

	return eval, nil
}
