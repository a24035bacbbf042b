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

// MLModelRepository handles model metadata persistence
type MLModelRepository struct {
	db DBTX
}

// NewMLModelRepository creates a new model repository
func NewMLModelRepository(db DBTX) *MLModelRepository {
	return &MLModelRepository{db: db}
}

// RegisterOrUpdate creates a model or patches the supplied fields of an
// existing one. NULLIF keeps empty strings from clobbering stored values.
func (r *MLModelRepository) RegisterOrUpdate(ctx context.Context, name, modelType, version, parameters string) (*models.MLModel, error) {
	query := `
		INSERT INTO ml_models (
			id, name, type, version, parameters, feedback_count,
			feedback_incorporated, last_updated, created_at
		) VALUES (
			$1, $2, $3, $4, $5, 0, FALSE, NOW(), NOW()
		)
		ON CONFLICT (name) DO UPDATE SET
			type = COALESCE(NULLIF(excluded.type, ''), ml_models.type),
			version = COALESCE(NULLIF(excluded.version, ''), ml_models.version),
			parameters = COALESCE(NULLIF(excluded.parameters, ''), ml_models.parameters),
			last_updated = NOW()
		RETURNING id, name, type, version, COALESCE(parameters, ''),
			accuracy, precision_score, recall, f1_score, auc,
			feedback_count, feedback_incorporated, trained_at, last_updated, created_at`

	m, err := scanModel(r.db.QueryRow(ctx, query, uuid.New(), name, modelType, version, textOrNull(parameters)))
	if err != nil {
		return nil, fmt.Errorf("failed to register model: %w", err)
	}

	return m, nil
}

// GetByName retrieves a model by its unique name, (nil, nil) when absent
func (r *MLModelRepository) GetByName(ctx context.Context, name string) (*models.MLModel, error) {
	query := `
		SELECT id, name, type, version, COALESCE(parameters, ''),
			   accuracy, precision_score, recall, f1_score, auc,
			   feedback_count, feedback_incorporated, trained_at, last_updated, created_at
		FROM ml_models
		WHERE name = $1`

	m, err := scanModel(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return m, nil
}

// List returns all registered models
func (r *MLModelRepository) List(ctx context.Context) ([]*models.MLModel, error) {
	query := `
		SELECT id, name, type, version, COALESCE(parameters, ''),
			   accuracy, precision_score, recall, f1_score, auc,
			   feedback_count, feedback_incorporated, trained_at, last_updated, created_at
		FROM ml_models
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var list []*models.MLModel
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		list = append(list, m)
	}

	return list, nil
}

// UpdateMetrics replaces the metric snapshot of a model
func (r *MLModelRepository) UpdateMetrics(ctx context.Context, name string, metrics models.ModelMetrics) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ml_models SET
			accuracy = COALESCE($2, accuracy),
			precision_score = COALESCE($3, precision_score),
			recall = COALESCE($4, recall),
			f1_score = COALESCE($5, f1_score),
			auc = COALESCE($6, auc),
			trained_at = NOW(),
			last_updated = NOW()
		WHERE name = $1`,
		name, metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1Score, metrics.AUC,
	)
	if err != nil {
		return fmt.Errorf("failed to update model metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrModelNotFound
	}

	return nil
}

// IncrementFeedback atomically bumps the feedback counter of a model
func (r *MLModelRepository) IncrementFeedback(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE ml_models SET
			feedback_count = feedback_count + 1,
			feedback_incorporated = TRUE,
			last_updated = NOW()
		WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to increment model feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrModelNotFound
	}

	return nil
}

func scanModel(row pgx.Row) (*models.MLModel, error) {
	m := &models.MLModel{}
	var trainedAt pgtype.Timestamptz

	err := row.Scan(
		&m.ID, &m.Name, &m.Type, &m.Version, &m.Parameters,
		&m.Metrics.Accuracy, &m.Metrics.Precision, &m.Metrics.Recall,
		&m.Metrics.F1Score, &m.Metrics.AUC,
		&m.FeedbackCount, &m.FeedbackIncorporated, &trainedAt, &m.LastUpdated, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if trainedAt.Valid {
		t := trainedAt.Time
		m.TrainedAt = &t
	}

	return m, nil
}

// ModelEvaluationRepository handles append-only per-prediction rows
type ModelEvaluationRepository struct {
	db DBTX
}

// NewModelEvaluationRepository creates a new evaluation repository
func NewModelEvaluationRepository(db DBTX) *ModelEvaluationRepository {
	return &ModelEvaluationRepository{db: db}
}

// Create appends an evaluation row
func (r *ModelEvaluationRepository) Create(ctx context.Context, e *models.ModelEvaluation) (*models.ModelEvaluation, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()

	query := `
		INSERT INTO model_evaluations (
			id, model_id, url_id, predicted_score, actual_label, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.ModelID, e.URLID, e.PredictedScore, e.ActualLabel, e.CreatedAt,
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create model evaluation: %w", err)
	}

	return e, nil
}

// CountForModel returns the number of evaluation rows for a model
func (r *ModelEvaluationRepository) CountForModel(ctx context.Context, modelID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM model_evaluations WHERE model_id = $1`, modelID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return count, nil
}
