package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"urlsentry/internal/domain/models"
	"urlsentry/internal/infrastructure/cache"
	"urlsentry/internal/infrastructure/database/repository"
	"urlsentry/pkg/logger"
)

// FeedbackService collects user reports and externally produced feedback
// and feeds the learning queue. Report persistence is synchronous; queue
// delivery to Redis is best effort and never blocks a caller on the
// drainer.
type FeedbackService struct {
	repos  *repository.Repositories
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewFeedbackService creates a feedback service
func NewFeedbackService(repos *repository.Repositories, redisCache *cache.RedisCache, log *logger.Logger) *FeedbackService {
	return &FeedbackService{
		repos:  repos,
		cache:  redisCache,
		logger: log.WithComponent("feedback-service"),
	}
}

// SubmitReport validates and stores one user report, linking it to the
// registry row when the URL has been analyzed before, and enqueues the
// implied label for the drainer.
func (s *FeedbackService) SubmitReport(ctx context.Context, req *models.CreateReportRequest) (*models.URLReport, error) {
	reportType := models.ReportType(req.ReportType)
	if !models.ValidReportType(reportType) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidReportType, req.ReportType)
	}

	normalized, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	report := &models.URLReport{
		URL:           normalized,
		ReportType:    reportType,
		Comments:      req.Comments,
		ReporterEmail: req.ReporterEmail,
		Source:        req.Source,
	}

	if row, err := s.repos.URLs.GetByURL(ctx, normalized); err != nil {
		s.logger.Warn().Err(err).Str("url", normalized).Msg("registry lookup failed while linking report")
	} else if row != nil {
		report.URLID = &row.ID
	}

	report, err = s.repos.Reports.Create(ctx, report)
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, &models.FeedbackQueueEntry{
		URL:          normalized,
		IsPhishing:   reportType.AssertsPhishing(),
		FeedbackType: reportType,
		Source:       req.Source,
	})

	return report, nil
}

// ProcessBatch stores pre-labeled feedback pushed by external producers.
// Each item succeeds or fails on its own; one bad item never aborts the
// batch.
func (s *FeedbackService) ProcessBatch(ctx context.Context, req *models.FeedbackBatchRequest) *models.FeedbackBatchResult {
	result := &models.FeedbackBatchResult{
		Results: make([]models.FeedbackItemResult, 0, len(req.FeedbackBatch)),
	}

	for _, item := range req.FeedbackBatch {
		outcome := models.FeedbackItemResult{URL: item.URL}

		if err := s.processBatchItem(ctx, item); err != nil {
			outcome.Error = err.Error()
			s.logger.Warn().Err(err).Str("url", item.URL).Msg("feedback batch item failed")
		} else {
			outcome.Success = true
		}

		result.Results = append(result.Results, outcome)
	}

	return result
}

func (s *FeedbackService) processBatchItem(ctx context.Context, item models.FeedbackBatchItem) error {
	feedbackType := models.ReportType(item.FeedbackType)
	if !models.ValidReportType(feedbackType) {
		return fmt.Errorf("%w: %q", models.ErrInvalidReportType, item.FeedbackType)
	}

	normalized, err := NormalizeURL(item.URL)
	if err != nil {
		return err
	}

	entry := &models.FeedbackQueueEntry{
		URL:          normalized,
		IsPhishing:   item.IsPhishing,
		FeedbackType: feedbackType,
	}
	if item.Timestamp > 0 {
		entry.EnqueuedAt = time.Unix(int64(item.Timestamp), 0)
	}

	if _, err := s.repos.Feedback.Insert(ctx, entry); err != nil {
		return err
	}

	s.enqueue(ctx, entry)
	return nil
}

// enqueue pushes the entry onto the Redis learning queue and refreshes
// the per-URL feedback cache. Both are best effort.
func (s *FeedbackService) enqueue(ctx context.Context, entry *models.FeedbackQueueEntry) {
	if entry.ID == uuid.Nil {
		if _, err := s.repos.Feedback.Insert(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("url", entry.URL).Msg("failed to persist feedback queue entry")
			return
		}
	}

	if err := s.cache.EnqueueFeedback(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("url", entry.URL).Msg("failed to enqueue feedback in Redis")
	}

	if err := s.cache.CacheFeedback(ctx, entry.URL, entry); err != nil {
		s.logger.Warn().Err(err).Str("url", entry.URL).Msg("failed to cache feedback")
	}
}

// QueueDepth reports pending learning-queue entries for the stats surface
func (s *FeedbackService) QueueDepth(ctx context.Context) (int64, error) {
	return s.cache.QueueDepth(ctx)
}
