package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"urlsentry/internal/domain/models"
)

// Repositories bundles all repositories for dependency injection
type Repositories struct {
	URLs        *AnalyzedURLRepository
	Sessions    *DetectionSessionRepository
	Reports     *URLReportRepository
	Feedback    *FeedbackQueueRepository
	Models      *MLModelRepository
	Evaluations *ModelEvaluationRepository

	pool *pgxpool.Pool
}

// NewRepositories creates all repositories backed by the given pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		URLs:        NewAnalyzedURLRepository(pool),
		Sessions:    NewDetectionSessionRepository(pool),
		Reports:     NewURLReportRepository(pool),
		Feedback:    NewFeedbackQueueRepository(pool),
		Models:      NewMLModelRepository(pool),
		Evaluations: NewModelEvaluationRepository(pool),
	}
}

// DrainFeedbackEntry applies the durable effects of one learning-queue
// entry in a single transaction: claim the processed flag, write the
// permanent report, bump the model feedback counter. The claim rolls
// back with everything else, so a failed entry stays unprocessed and
// can be retried. Returns false when an earlier pass already claimed
// the entry; the caller must then skip it.
func (r *Repositories) DrainFeedbackEntry(ctx context.Context, entry *models.FeedbackQueueEntry, modelName string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin drain transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	feedback := NewFeedbackQueueRepository(tx)
	claimed, err := feedback.MarkProcessed(ctx, entry.ID)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	report := &models.URLReport{
		URL:        entry.URL,
		ReportType: entry.FeedbackType,
		Source:     entry.Source,
	}
	urls := NewAnalyzedURLRepository(tx)
	if row, err := urls.GetByURL(ctx, entry.URL); err == nil && row != nil {
		report.URLID = &row.ID
	}

	reports := NewURLReportRepository(tx)
	if _, err := reports.Create(ctx, report); err != nil {
		return false, err
	}

	mlModels := NewMLModelRepository(tx)
	if err := mlModels.IncrementFeedback(ctx, modelName); err != nil && err != models.ErrModelNotFound {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit drain transaction: %w", err)
	}

	return true, nil
}
