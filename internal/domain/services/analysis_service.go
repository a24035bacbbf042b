package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/internal/streaming"
	"urlsentry/pkg/logger"
)

// MaxBatchSize caps the number of URLs accepted by a single batch request
const MaxBatchSize = 20

// RequestMeta carries per-request client metadata into the audit trail
type RequestMeta struct {
	UserAgent string
	ClientIP  string
}

// AnalysisService dispatches analysis requests through cache check,
// classification and persistence. Requests always complete: upstream
// classifier failures degrade to the heuristic scorer.
type AnalysisService struct {
	extractor  *FeatureExtractor
	scorer     *HeuristicScorer
	classifier *ClassifierClient
	repos      *repository.Repositories
	cache      *cache.RedisCache
	events     *streaming.EventBus
	logger     *logger.Logger
	whitelist  map[string]bool
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(
	extractor *FeatureExtractor,
	scorer *HeuristicScorer,
	classifier *ClassifierClient,
	repos *repository.Repositories,
	redisCache *cache.RedisCache,
	events *streaming.EventBus,
	log *logger.Logger,
) *AnalysisService {
	return &AnalysisService{
		extractor:  extractor,
		scorer:     scorer,
		classifier: classifier,
		repos:      repos,
		cache:      redisCache,
		events:     events,
		logger:     log.WithComponent("analysis-service"),
		whitelist: map[string]bool{
			"example.com":  true,
			"info.cern.ch": true,
			"localhost":    true,
		},
	}
}

// Analyze runs the full pipeline for one URL
func (s *AnalysisService) Analyze(ctx context.Context, req *models.AnalyzeRequest, meta RequestMeta) (*models.AnalysisResult, error) {
	tier := models.TierStandard
	if req.DeepAnalysis {
		tier = models.TierDeep
	}

	source := req.Source
	if source == "" {
		source = string(models.SourceWebClient)
	}

	normalized, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithURL(normalized)

	features, err := s.extractor.Extract(normalized)
	if err != nil {
		return nil, err
	}

	if s.isWhitelisted(normalized) {
		return &models.AnalysisResult{
			URL:           normalized,
			IsPhishing:    false,
			ThreatScore:   0,
			Probability:   0,
			Details:       "Domain is on the trusted whitelist",
			Features:      features,
			AnalysisType:  tier,
			ScoringMethod: models.ScoringHeuristicV1,
		}, nil
	}

	if cached := s.checkCache(ctx, normalized, tier); cached != nil {
		log.Debug().Str("tier", string(cached.AnalysisType)).Msg("serving cached analysis")
		s.persistHit(ctx, cached, source, tier, meta)

		served := *cached
		served.AnalysisType = models.TierCached
		return &served, nil
	}

	result := s.classify(ctx, normalized, features, tier, source)

	row, err := s.repos.URLs.Upsert(ctx, &models.AnalyzedURL{
		URL:           normalized,
		IsPhishing:    result.IsPhishing,
		ThreatScore:   result.ThreatScore,
		ScoringMethod: result.ScoringMethod,
		Tier:          result.AnalysisType,
		Features:      features,
		Sources:       []string{source},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.recordSession(ctx, row.ID, source, tier, false, meta)

	if err := s.cache.CacheAnalysis(ctx, normalized, result); err != nil {
		log.Warn().Err(err).Msg("failed to cache analysis result")
	}

	if result.ScoringMethod != models.ScoringHeuristicV1 {
		s.trackPrediction(ctx, row, result)
	}

	s.publishDetection(ctx, row, result, source)

	return result, nil
}

// AnalyzeBatch analyzes up to MaxBatchSize URLs at the standard tier
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, req *models.AnalyzeBatchRequest, meta RequestMeta) (*models.BatchAnalysisResult, error) {
	if len(req.URLs) == 0 {
		return nil, fmt.Errorf("%w: empty url list", models.ErrInvalidURL)
	}
	if len(req.URLs) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch limited to %d urls", models.ErrInvalidURL, MaxBatchSize)
	}

	batch := &models.BatchAnalysisResult{Total: len(req.URLs)}
	for _, u := range req.URLs {
		item := &models.BatchAnalysisItem{URL: u}

		result, err := s.Analyze(ctx, &models.AnalyzeRequest{URL: u, Source: req.Source}, meta)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
		}

		batch.Results = append(batch.Results, item)
	}

	return batch, nil
}

// checkCache looks for a prior result that satisfies the requested tier,
// Redis first, then the registry
func (s *AnalysisService) checkCache(ctx context.Context, normalized string, tier models.AnalysisTier) *models.AnalysisResult {
	var cached models.AnalysisResult
	if err := s.cache.GetCachedAnalysis(ctx, normalized, &cached); err == nil {
		if cached.AnalysisType.Subsumes(tier) {
			return &cached
		}
	}

	row, err := s.repos.URLs.GetByURL(ctx, normalized)
	if err != nil {
		s.logger.Warn().Err(err).Msg("registry lookup failed during cache check")
		return nil
	}
	if row == nil || !row.Tier.Subsumes(tier) {
		return nil
	}

	// Rows registered without an analysis pass carry no snapshot
	features := row.Features
	if features == nil {
		if extracted, err := s.extractor.Extract(row.URL); err == nil {
			features = extracted
		}
	}

	return &models.AnalysisResult{
		URL:           row.URL,
		IsPhishing:    row.IsPhishing,
		ThreatScore:   row.ThreatScore,
		Probability:   row.ThreatScore / 100,
		Details:       s.scorer.Explain(features, row.IsPhishing),
		Features:      features,
		AnalysisType:  row.Tier,
		ScoringMethod: row.ScoringMethod,
	}
}

// classify calls the tier-selected classifier and maps its probability
// to a verdict, falling back to the heuristic scorer on any failure
func (s *AnalysisService) classify(ctx context.Context, normalized string, features *models.URLFeatures, tier models.AnalysisTier, source string) *models.AnalysisResult {
	outcome, failure := s.classifier.Classify(ctx, normalized, tier, source)
	if failure != nil {
		s.logger.Warn().Err(failure.Err).Bool("timeout", failure.Timeout).
			Str("tier", string(tier)).Msg("classifier unavailable, using heuristic fallback")

		score := s.scorer.Score(features)
		isPhishing := s.scorer.Verdict(features, score)
		return &models.AnalysisResult{
			URL:           normalized,
			IsPhishing:    isPhishing,
			ThreatScore:   score,
			Probability:   score / 100,
			Details:       s.scorer.Explain(features, isPhishing),
			Features:      features,
			AnalysisType:  tier,
			ScoringMethod: models.ScoringHeuristicV1,
		}
	}

	mergeUpstreamFeatures(features, outcome.Features)

	var isPhishing bool
	var score float64
	method := models.ScoringStandardV1

	if tier == models.TierDeep {
		isPhishing, score = mapDeepProbability(outcome.Probability)
		method = models.ScoringDeepV1
	} else {
		isPhishing, score = mapStandardProbability(outcome.Probability)
		isPhishing, score = applyRiskOverride(features, isPhishing, score)
	}

	details := outcome.Details
	if details == "" {
		details = s.scorer.Explain(features, isPhishing)
	}

	return &models.AnalysisResult{
		URL:           normalized,
		IsPhishing:    isPhishing,
		ThreatScore:   clampScore(score),
		Probability:   outcome.Probability,
		Details:       details,
		Features:      features,
		AnalysisType:  tier,
		ScoringMethod: method,
	}
}

// persistHit folds a cache hit back into the registry so counters and
// provenance stay accurate, and records the audit session
func (s *AnalysisService) persistHit(ctx context.Context, cached *models.AnalysisResult, source string, requested models.AnalysisTier, meta RequestMeta) {
	row, err := s.repos.URLs.Upsert(ctx, &models.AnalyzedURL{
		URL:           cached.URL,
		IsPhishing:    cached.IsPhishing,
		ThreatScore:   cached.ThreatScore,
		ScoringMethod: cached.ScoringMethod,
		Tier:          cached.AnalysisType,
		Features:      cached.Features,
		Sources:       []string{source},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("url", cached.URL).Msg("failed to record cache hit in registry")
		return
	}

	s.recordSession(ctx, row.ID, source, requested, true, meta)
}

// recordSession appends the audit row; failures are logged, never fatal
func (s *AnalysisService) recordSession(ctx context.Context, urlID uuid.UUID, source string, tier models.AnalysisTier, cacheHit bool, meta RequestMeta) {
	_, err := s.repos.Sessions.Create(ctx, &models.DetectionSession{
		URLID:     urlID,
		Source:    source,
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
		Tier:      tier,
		CacheHit:  cacheHit,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record detection session")
	}
}

// trackPrediction appends an evaluation row for the model that scored
// this URL. Best effort: an unregistered model is only logged.
func (s *AnalysisService) trackPrediction(ctx context.Context, row *models.AnalyzedURL, result *models.AnalysisResult) {
	name := s.classifier.ModelName(result.AnalysisType)

	model, err := s.repos.Models.GetByName(ctx, name)
	if err != nil || model == nil {
		s.logger.Debug().Str("model", name).Msg("skipping evaluation for unregistered model")
		return
	}

	_, err = s.repos.Evaluations.Create(ctx, &models.ModelEvaluation{
		ModelID:        model.ID,
		URLID:          row.ID,
		PredictedScore: result.ThreatScore,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("model", name).Msg("failed to track model evaluation")
	}
}

func (s *AnalysisService) publishDetection(ctx context.Context, row *models.AnalyzedURL, result *models.AnalysisResult, source string) {
	if s.events == nil {
		return
	}

	event := streaming.NewDetectionEvent(row, result, source)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish detection event")
	}
}

func (s *AnalysisService) isWhitelisted(normalized string) bool {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return s.whitelist[host] || s.whitelist[registrableDomain(host)]
}

// mapStandardProbability converts a standard-tier classifier probability
// into a verdict and a display score on the 0-100 scale
func mapStandardProbability(p float64) (bool, float64) {
	switch {
	case p >= 0.7:
		return true, 85 + (p-0.7)*50
	case p >= 0.4:
		return true, 40 + (p-0.4)*45
	case p >= 0.2:
		return false, 20 + (p-0.2)*20
	default:
		return false, p * 100
	}
}

// mapDeepProbability converts a deep-tier classifier probability
func mapDeepProbability(p float64) (bool, float64) {
	return p >= 0.7, clampScore(p * 100)
}

// applyRiskOverride forces a phishing verdict when the lightweight
// features alone are damning, regardless of the classifier's answer
func applyRiskOverride(f *models.URLFeatures, isPhishing bool, score float64) (bool, float64) {
	if f.UsesIP || f.SuspiciousKeywords >= 3 || f.BrandKeywords >= 2 {
		if score < 60 {
			score = 60
		}
		return true, score
	}
	return isPhishing, score
}
