package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackQueueEntry is one queued piece of feedback awaiting
// reconciliation. Entries are kept for audit and only ever flagged
// processed, never deleted.
type FeedbackQueueEntry struct {
	ID           uuid.UUID  `json:"id"`
	URL          string     `json:"url"`
	IsPhishing   bool       `json:"is_phishing"`
	FeedbackType ReportType `json:"feedback_type"`
	Source       string     `json:"source,omitempty"`
	EnqueuedAt   time.Time  `json:"enqueued_at"`
	Processed    bool       `json:"processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// FeedbackBatchRequest is the body of POST /internal/feedback-batch
type FeedbackBatchRequest struct {
	FeedbackBatch []FeedbackBatchItem `json:"feedback_batch"`
}

// FeedbackBatchItem is one externally produced feedback record
type FeedbackBatchItem struct {
	URL          string  `json:"url"`
	IsPhishing   bool    `json:"is_phishing"`
	FeedbackType string  `json:"feedback_type"`
	Timestamp    float64 `json:"timestamp,omitempty"`
}

// FeedbackItemResult is the per-item outcome of batch processing
type FeedbackItemResult struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// FeedbackBatchResult wraps per-item outcomes
type FeedbackBatchResult struct {
	Results []FeedbackItemResult `json:"results"`
}

// DrainResult summarizes one drainer pass over the learning queue
type DrainResult struct {
	Processed []string  `json:"processed"`
	Failed    []string  `json:"failed"`
	Skipped   int       `json:"skipped"`
	DrainedAt time.Time `json:"drained_at"`
}
