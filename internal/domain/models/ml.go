package models

import (
	"time"

	"github.com/google/uuid"
)

// ModelMetrics is a snapshot of a model's quality metrics
type ModelMetrics struct {
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
	F1Score   *float64 `json:"f1_score,omitempty"`
	AUC       *float64 `json:"auc,omitempty"`
}

// MLModel is a registered classifier. Identity is the unique name;
// fields are patched by registration or explicit metric updates only.
type MLModel struct {
	ID                   uuid.UUID    `json:"id"`
	Name                 string       `json:"name"`
	Type                 string       `json:"type"`
	Version              string       `json:"version"`
	Parameters           string       `json:"parameters,omitempty"`
	Metrics              ModelMetrics `json:"metrics"`
	FeedbackCount        int64        `json:"feedback_count"`
	FeedbackIncorporated bool         `json:"feedback_incorporated"`
	TrainedAt            *time.Time   `json:"trained_at,omitempty"`
	LastUpdated          time.Time    `json:"last_updated"`
	CreatedAt            time.Time    `json:"created_at"`
}

// ModelEvaluation is one append-only row per scored prediction. The
// actual label is filled in later by feedback reconciliation.
type ModelEvaluation struct {
	ID             uuid.UUID `json:"id"`
	ModelID        uuid.UUID `json:"model_id"`
	URLID          uuid.UUID `json:"url_id"`
	PredictedScore float64   `json:"predicted_score"`
	ActualLabel    *bool     `json:"actual_label,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterModelRequest is the body of POST /internal/model/register
type RegisterModelRequest struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Version    string `json:"version"`
	Parameters string `json:"parameters,omitempty"`
}

// TrackEvaluationRequest is the body of POST /internal/model/evaluation
type TrackEvaluationRequest struct {
	ModelName      string  `json:"model_name"`
	URL            string  `json:"url"`
	PredictedScore float64 `json:"predicted_score"`
	ActualLabel    *bool   `json:"actual_label,omitempty"`
}
