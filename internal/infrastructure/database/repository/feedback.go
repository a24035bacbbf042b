package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"urlsentry/internal/domain/models"
)

// FeedbackQueueRepository is the durable side of the learning queue.
// Rows are never deleted; the processed flag transition is the per-row
// lock that makes the drainer idempotent.
type FeedbackQueueRepository struct {
	db DBTX
}

// NewFeedbackQueueRepository creates a new feedback queue repository
func NewFeedbackQueueRepository(db DBTX) *FeedbackQueueRepository {
	return &FeedbackQueueRepository{db: db}
}

// Insert records a queue entry
func (r *FeedbackQueueRepository) Insert(ctx context.Context, e *models.FeedbackQueueEntry) (*models.FeedbackQueueEntry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}

	query := `
		INSERT INTO feedback_queue (
			id, url, is_phishing, feedback_type, source, enqueued_at, processed
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE
		) RETURNING id, enqueued_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.URL, e.IsPhishing, e.FeedbackType, textOrNull(e.Source), e.EnqueuedAt,
	).Scan(&e.ID, &e.EnqueuedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert feedback queue entry: %w", err)
	}

	return e, nil
}

// MarkProcessed flips the processed flag for an entry and reports
// whether this call performed the transition. A false return with no
// error means the entry was already processed, so counter updates must
// be skipped.
func (r *FeedbackQueueRepository) MarkProcessed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE feedback_queue
		SET processed = TRUE, processed_at = NOW()
		WHERE id = $1 AND processed = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark feedback processed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountPending returns the number of unprocessed entries
func (r *FeedbackQueueRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM feedback_queue WHERE processed = FALSE`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending feedback: %w", err)
	}
	return count, nil
}
