package streaming

import (
	"time"

	"github.com/google/uuid"

	"urlsentry/internal/domain/models"
)

// EventType represents the type of detection event
type EventType string

const (
	EventTypeDetection    EventType = "detection"
	EventTypeFeedback     EventType = "feedback"
	EventTypeModelUpdated EventType = "model_updated"
)

// DetectionEvent is the real-time record of one completed analysis,
// published to NATS and fanned out to WebSocket consumers
type DetectionEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	URLID         string               `json:"url_id,omitempty"`
	URL           string               `json:"url"`
	IsPhishing    bool                 `json:"is_phishing"`
	ThreatScore   float64              `json:"threat_score"`
	Tier          models.AnalysisTier  `json:"tier"`
	ScoringMethod models.ScoringMethod `json:"scoring_method"`
	Source        string               `json:"source,omitempty"`
	Details       string               `json:"details,omitempty"`
}

// NewDetectionEvent builds a detection event from a registry row and the
// result served to the client
func NewDetectionEvent(row *models.AnalyzedURL, result *models.AnalysisResult, source string) *DetectionEvent {
	event := &DetectionEvent{
		ID:            uuid.New().String(),
		Type:          EventTypeDetection,
		Timestamp:     time.Now(),
		URL:           result.URL,
		IsPhishing:    result.IsPhishing,
		ThreatScore:   result.ThreatScore,
		Tier:          result.AnalysisType,
		ScoringMethod: result.ScoringMethod,
		Source:        source,
		Details:       result.Details,
	}

	if row != nil {
		event.URLID = row.ID.String()
	}

	return event
}

// Subscription represents a client's filtering preferences
type Subscription struct {
	// Only phishing verdicts (false = everything)
	PhishingOnly bool `json:"phishing_only,omitempty"`

	// Minimum threat score (0 = all)
	MinScore float64 `json:"min_score,omitempty"`

	// Filter by analysis tiers (empty = all)
	Tiers []models.AnalysisTier `json:"tiers,omitempty"`

	// Filter by client sources (empty = all)
	Sources []string `json:"sources,omitempty"`
}

// Matches checks if an event passes the subscription filters
func (s *Subscription) Matches(event *DetectionEvent) bool {
	if s.PhishingOnly && !event.IsPhishing {
		return false
	}

	if event.ThreatScore < s.MinScore {
		return false
	}

	if len(s.Tiers) > 0 {
		found := false
		for _, t := range s.Tiers {
			if t == event.Tier {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(s.Sources) > 0 {
		found := false
		for _, src := range s.Sources {
			if src == event.Source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
