package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"urlsentry/internal/domain/models"
)

// AnalyzedURLRepository owns the AnalyzedURL lifecycle. The uniqueness
// constraint on the url column is the concurrency-control primitive:
// concurrent first-time analyses race on the insert and the loser's
// write becomes an update.
type AnalyzedURLRepository struct {
	db DBTX
}

// NewAnalyzedURLRepository creates a new analyzed URL repository
func NewAnalyzedURLRepository(db DBTX) *AnalyzedURLRepository {
	return &AnalyzedURLRepository{db: db}
}

// Upsert creates the registry row for a URL or folds a new analysis into
// the existing one. Counters are incremented atomically in SQL, the
// provenance set is merged, and a deep-tier result is never overwritten
// by a standard-tier one (the stored verdict wins on downgrade).
func (r *AnalyzedURLRepository) Upsert(ctx context.Context, u *models.AnalyzedURL) (*models.AnalyzedURL, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	query := `
		INSERT INTO analyzed_urls (
			id, url, is_phishing, threat_score, scoring_method, tier,
			features, sources, analyze_count, detected_phishing_count,
			first_analyzed, last_analyzed
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, 1,
			CASE WHEN $3 THEN 1 ELSE 0 END, NOW(), NOW()
		)
		ON CONFLICT (url) DO UPDATE SET
			is_phishing = CASE
				WHEN analyzed_urls.tier = 'deep' AND excluded.tier <> 'deep'
				THEN analyzed_urls.is_phishing ELSE excluded.is_phishing END,
			threat_score = CASE
				WHEN analyzed_urls.tier = 'deep' AND excluded.tier <> 'deep'
				THEN analyzed_urls.threat_score ELSE excluded.threat_score END,
			scoring_method = CASE
				WHEN analyzed_urls.tier = 'deep' AND excluded.tier <> 'deep'
				THEN analyzed_urls.scoring_method ELSE excluded.scoring_method END,
			features = CASE
				WHEN analyzed_urls.tier = 'deep' AND excluded.tier <> 'deep'
				THEN analyzed_urls.features ELSE excluded.features END,
			tier = CASE
				WHEN analyzed_urls.tier = 'deep' THEN analyzed_urls.tier
				ELSE excluded.tier END,
			sources = ARRAY(
				SELECT DISTINCT s FROM unnest(analyzed_urls.sources || excluded.sources) AS s
			),
			analyze_count = analyzed_urls.analyze_count + 1,
			detected_phishing_count = analyzed_urls.detected_phishing_count + CASE
				WHEN (CASE
					WHEN analyzed_urls.tier = 'deep' AND excluded.tier <> 'deep'
					THEN analyzed_urls.is_phishing ELSE excluded.is_phishing END)
				THEN 1 ELSE 0 END,
			last_analyzed = NOW()
		RETURNING id, url, is_phishing, threat_score, scoring_method, tier,
			features, sources, analyze_count, detected_phishing_count,
			first_analyzed, last_analyzed`

	row := r.db.QueryRow(ctx, query,
		u.ID, u.URL, u.IsPhishing, u.ThreatScore, u.ScoringMethod, u.Tier,
		u.Features, u.Sources,
	)

	result, err := scanAnalyzedURL(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert analyzed url: %w", err)
	}

	return result, nil
}

// GetByURL retrieves a registry row by normalized URL, (nil, nil) when absent
func (r *AnalyzedURLRepository) GetByURL(ctx context.Context, url string) (*models.AnalyzedURL, error) {
	query := `
		SELECT id, url, is_phishing, threat_score, scoring_method, tier,
			   features, sources, analyze_count, detected_phishing_count,
			   first_analyzed, last_analyzed
		FROM analyzed_urls
		WHERE url = $1`

	u, err := scanAnalyzedURL(r.db.QueryRow(ctx, query, url))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analyzed url: %w", err)
	}

	return u, nil
}

// GetByID retrieves a registry row by id
func (r *AnalyzedURLRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalyzedURL, error) {
	query := `
		SELECT id, url, is_phishing, threat_score, scoring_method, tier,
			   features, sources, analyze_count, detected_phishing_count,
			   first_analyzed, last_analyzed
		FROM analyzed_urls
		WHERE id = $1`

	u, err := scanAnalyzedURL(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analyzed url by id: %w", err)
	}

	return u, nil
}

// GetStats returns aggregate registry statistics
func (r *AnalyzedURLRepository) GetStats(ctx context.Context) (*URLStats, error) {
	stats := &URLStats{}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_phishing),
			COALESCE(SUM(analyze_count), 0),
			COUNT(*) FILTER (WHERE last_analyzed > NOW() - INTERVAL '24 hours')
		FROM analyzed_urls
	`).Scan(&stats.TotalURLs, &stats.PhishingURLs, &stats.TotalAnalyses, &stats.AnalyzedLast24h)
	if err != nil {
		return nil, fmt.Errorf("failed to get url stats: %w", err)
	}

	return stats, nil
}

func scanAnalyzedURL(row pgx.Row) (*models.AnalyzedURL, error) {
	u := &models.AnalyzedURL{}
	var lastAnalyzed, firstAnalyzed time.Time

	err := row.Scan(
		&u.ID, &u.URL, &u.IsPhishing, &u.ThreatScore, &u.ScoringMethod, &u.Tier,
		&u.Features, &u.Sources, &u.AnalyzeCount, &u.DetectedPhishingCount,
		&firstAnalyzed, &lastAnalyzed,
	)
	if err != nil {
		return nil, err
	}

	u.FirstAnalyzed = firstAnalyzed
	u.LastAnalyzed = lastAnalyzed
	return u, nil
}

// URLStats holds aggregate registry statistics
type URLStats struct {
	TotalURLs       int64 `json:"total_urls"`
	PhishingURLs    int64 `json:"phishing_urls"`
	TotalAnalyses   int64 `json:"total_analyses"`
	AnalyzedLast24h int64 `json:"analyzed_last_24h"`
}
