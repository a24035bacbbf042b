package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"urlsentry/internal/domain/models"
)

// URLReportRepository handles permanent user feedback records
type URLReportRepository struct {
	db DBTX
}

// NewURLReportRepository creates a new URL report repository
func NewURLReportRepository(db DBTX) *URLReportRepository {
	return &URLReportRepository{db: db}
}

// Create inserts a report. URLID may be nil when the reported URL has
// never been analyzed.
func (r *URLReportRepository) Create(ctx context.Context, rep *models.URLReport) (*models.URLReport, error) {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	rep.CreatedAt = time.Now()

	query := `
		INSERT INTO url_reports (
			id, url, url_id, report_type, comments, reporter_email, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		rep.ID, rep.URL, rep.URLID, rep.ReportType,
		textOrNull(rep.Comments), textOrNull(rep.ReporterEmail), textOrNull(rep.Source),
		rep.CreatedAt,
	).Scan(&rep.ID, &rep.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create url report: %w", err)
	}

	return rep, nil
}

// ListByURL returns all reports for a URL string, newest first
func (r *URLReportRepository) ListByURL(ctx context.Context, url string) ([]*models.URLReport, error) {
	query := `
		SELECT id, url, url_id, report_type, comments, reporter_email, source, created_at
		FROM url_reports
		WHERE url = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// List returns recent reports, newest first
func (r *URLReportRepository) List(ctx context.Context, limit int) ([]*models.URLReport, error) {
	query := `
		SELECT id, url, url_id, report_type, comments, reporter_email, source, created_at
		FROM url_reports
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows pgx.Rows) ([]*models.URLReport, error) {
	var reports []*models.URLReport
	for rows.Next() {
		rep := &models.URLReport{}
		var comments, reporterEmail, source pgtype.Text

		err := rows.Scan(&rep.ID, &rep.URL, &rep.URLID, &rep.ReportType,
			&comments, &reporterEmail, &source, &rep.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}

		if comments.Valid {
			rep.Comments = comments.String
		}
		if reporterEmail.Valid {
			rep.ReporterEmail = reporterEmail.String
		}
		if source.Valid {
			rep.Source = source.String
		}

		reports = append(reports, rep)
	}

	return reports, nil
}
