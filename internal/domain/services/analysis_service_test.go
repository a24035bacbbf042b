package services

import (
	"testing"

	"urlsentry/internal/domain/models"
)

func TestMapStandardProbability(t *testing.T) {
	tests := []struct {
		p            float64
		wantPhishing bool
		wantScore    float64
	}{
		{0.9, true, 95},
		{0.7, true, 85},
		{0.5, true, 44.5},
		{0.4, true, 40},
		{0.3, false, 22},
		{0.2, false, 20},
		{0.1, false, 10},
		{0, false, 0},
	}

	for _, tt := range tests {
		gotPhishing, gotScore := mapStandardProbability(tt.p)
		if gotPhishing != tt.wantPhishing {
			t.Errorf("mapStandardProbability(%f) verdict = %v, want %v", tt.p, gotPhishing, tt.wantPhishing)
		}
		if diff := gotScore - tt.wantScore; diff > 0.0001 || diff < -0.0001 {
			t.Errorf("mapStandardProbability(%f) score = %f, want %f", tt.p, gotScore, tt.wantScore)
		}
	}
}

func TestMapStandardProbabilityCapped(t *testing.T) {
	_, score := mapStandardProbability(1.0)
	if score > 100 {
		t.Errorf("score %f exceeds 100", score)
	}
}

func TestMapDeepProbability(t *testing.T) {
	if phishing, score := mapDeepProbability(0.75); !phishing || score != 75 {
		t.Errorf("mapDeepProbability(0.75) = (%v, %f)", phishing, score)
	}
	if phishing, _ := mapDeepProbability(0.69); phishing {
		t.Error("deep tier below 0.7 should not be phishing")
	}
}

func TestApplyRiskOverride(t *testing.T) {
	tests := []struct {
		name         string
		features     *models.URLFeatures
		inPhishing   bool
		inScore      float64
		wantPhishing bool
		wantMinScore float64
	}{
		{
			name:         "ip host forces phishing",
			features:     &models.URLFeatures{UsesIP: true},
			inPhishing:   false,
			inScore:      15,
			wantPhishing: true,
			wantMinScore: 60,
		},
		{
			name:         "three keywords force phishing",
			features:     &models.URLFeatures{SuspiciousKeywords: 3},
			inPhishing:   false,
			inScore:      30,
			wantPhishing: true,
			wantMinScore: 60,
		},
		{
			name:         "two brands force phishing",
			features:     &models.URLFeatures{BrandKeywords: 2},
			inPhishing:   false,
			inScore:      70,
			wantPhishing: true,
			wantMinScore: 70,
		},
		{
			name:         "clean record passes through",
			features:     &models.URLFeatures{SuspiciousKeywords: 1},
			inPhishing:   false,
			inScore:      25,
			wantPhishing: false,
			wantMinScore: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPhishing, gotScore := applyRiskOverride(tt.features, tt.inPhishing, tt.inScore)
			if gotPhishing != tt.wantPhishing {
				t.Errorf("verdict = %v, want %v", gotPhishing, tt.wantPhishing)
			}
			if gotScore < tt.wantMinScore {
				t.Errorf("score = %f, want >= %f", gotScore, tt.wantMinScore)
			}
		})
	}
}
