package streaming

import (
	"testing"

	"urlsentry/internal/domain/models"
)

func TestSubscriptionMatches(t *testing.T) {
	event := &DetectionEvent{
		URL:         "http://phish.example",
		IsPhishing:  true,
		ThreatScore: 72,
		Tier:        models.TierStandard,
		Source:      "browser_extension",
	}

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"empty filter matches everything", Subscription{}, true},
		{"phishing only matches phishing", Subscription{PhishingOnly: true}, true},
		{"min score below event score", Subscription{MinScore: 50}, true},
		{"min score above event score", Subscription{MinScore: 90}, false},
		{"matching tier", Subscription{Tiers: []models.AnalysisTier{models.TierStandard}}, true},
		{"non-matching tier", Subscription{Tiers: []models.AnalysisTier{models.TierDeep}}, false},
		{"matching source", Subscription{Sources: []string{"browser_extension"}}, true},
		{"non-matching source", Subscription{Sources: []string{"chatbot"}}, false},
		{
			"combined filters all pass",
			Subscription{PhishingOnly: true, MinScore: 60, Tiers: []models.AnalysisTier{models.TierStandard}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Matches(event); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionPhishingOnlyRejectsLegit(t *testing.T) {
	legit := &DetectionEvent{URL: "http://ok.example", IsPhishing: false, ThreatScore: 5}
	sub := Subscription{PhishingOnly: true}

	if sub.Matches(legit) {
		t.Error("phishing-only subscription must reject legitimate verdicts")
	}
}

func TestNewDetectionEvent(t *testing.T) {
	result := &models.AnalysisResult{
		URL:           "http://phish.example",
		IsPhishing:    true,
		ThreatScore:   88,
		AnalysisType:  models.TierDeep,
		ScoringMethod: models.ScoringDeepV1,
		Details:       "bad",
	}

	event := NewDetectionEvent(nil, result, "web_client")
	if event.ID == "" {
		t.Error("expected generated event id")
	}
	if event.Type != EventTypeDetection {
		t.Errorf("event type = %s", event.Type)
	}
	if event.URL != result.URL || !event.IsPhishing || event.Tier != models.TierDeep {
		t.Errorf("event does not mirror result: %+v", event)
	}
	if event.URLID != "" {
		t.Error("nil row should leave URLID empty")
	}
}
