package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"urlsentry/internal/domain/models"
)

// DetectionSessionRepository handles the append-only audit log of
// analysis requests
type DetectionSessionRepository struct {
	db DBTX
}

// NewDetectionSessionRepository creates a new detection session repository
func NewDetectionSessionRepository(db DBTX) *DetectionSessionRepository {
	return &DetectionSessionRepository{db: db}
}

// Create inserts a session row
func (r *DetectionSessionRepository) Create(ctx context.Context, s *models.DetectionSession) (*models.DetectionSession, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()

	query := `
		INSERT INTO detection_sessions (
			id, url_id, source, user_agent, client_ip, tier, cache_hit, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.URLID, s.Source, s.UserAgent, s.ClientIP, s.Tier, s.CacheHit, s.CreatedAt,
	).Scan(&s.ID, &s.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create detection session: %w", err)
	}

	return s, nil
}

// CountForURL returns the number of sessions recorded for a URL
func (r *DetectionSessionRepository) CountForURL(ctx context.Context, urlID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM detection_sessions WHERE url_id = $1`, urlID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// ListRecent returns the most recent sessions, newest first
func (r *DetectionSessionRepository) ListRecent(ctx context.Context, limit int) ([]*models.DetectionSession, error) {
	query := `
		SELECT id, url_id, source, user_agent, client_ip, tier, cache_hit, created_at
		FROM detection_sessions
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.DetectionSession
	for rows.Next() {
		s := &models.DetectionSession{}
		if err := rows.Scan(&s.ID, &s.URLID, &s.Source, &s.UserAgent, &s.ClientIP, &s.Tier, &s.CacheHit, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}
