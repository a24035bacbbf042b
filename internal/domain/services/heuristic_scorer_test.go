package services

import (
	"testing"

	"urlsentry/internal/domain/models"
)

func TestScoreRange(t *testing.T) {
	s := NewHeuristicScorer()

	// Everything triggered at once must still clamp to 100
	f := &models.URLFeatures{
		UsesIP:             true,
		AtSymbol:           true,
		IsShortened:        true,
		SuspiciousTLD:      true,
		PrefixSuffix:       true,
		SuspiciousKeywords: 8,
		BrandKeywords:      5,
		DomainEntropy:      4.5,
		NumSubdomains:      4,
		URLLength:          120,
		PathDepth:          6,
		QueryParamCount:    9,
	}

	if got := s.Score(f); got != 100 {
		t.Errorf("fully triggered record scored %f, want clamp to 100", got)
	}

	clean := &models.URLFeatures{HasHTTPS: true}
	if got := s.Score(clean); got != 0 {
		t.Errorf("clean https record scored %f, want 0", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewHeuristicScorer()
	f := &models.URLFeatures{UsesIP: true, SuspiciousKeywords: 1}

	first := s.Score(f)
	second := s.Score(f)
	if first != second {
		t.Errorf("same record scored differently: %f vs %f", first, second)
	}
}

func TestVerdictIPWithKeyword(t *testing.T) {
	s := NewHeuristicScorer()

	// http://192.168.1.5/login profile: raw IP, no https, one keyword
	f := &models.URLFeatures{UsesIP: true, SuspiciousKeywords: 1}
	score := s.Score(f)

	if score < 20 {
		t.Errorf("raw-IP record scored %f, want at least 20", score)
	}
	if !s.Verdict(f, score) {
		t.Error("raw IP with a suspicious keyword must be phishing regardless of total")
	}
}

func TestVerdictThreshold(t *testing.T) {
	s := NewHeuristicScorer()

	f := &models.URLFeatures{HasHTTPS: true}
	if s.Verdict(f, 59.9) {
		t.Error("score below 60 without the IP override should not be phishing")
	}
	if !s.Verdict(f, 60) {
		t.Error("score of 60 should be phishing")
	}
}

func TestExplain(t *testing.T) {
	s := NewHeuristicScorer()

	f := &models.URLFeatures{UsesIP: true, IsShortened: true}
	got := s.Explain(f, true)
	if got == "" {
		t.Fatal("expected a non-empty explanation")
	}

	clean := &models.URLFeatures{HasHTTPS: true}
	if got := s.Explain(clean, false); got != "No significant suspicious indicators detected" {
		t.Errorf("unexpected clean explanation: %q", got)
	}
}

func TestNilFeatureRecord(t *testing.T) {
	s := NewHeuristicScorer()

	// Registry rows created without an analysis pass (evaluation
	// tracking for a never-analyzed URL) have no feature snapshot;
	// every scorer entry point must tolerate that.
	if got := s.Score(nil); got != 0 {
		t.Errorf("Score(nil) = %f, want 0", got)
	}

	if s.Verdict(nil, 59) {
		t.Error("Verdict(nil, 59) should not be phishing")
	}
	if !s.Verdict(nil, 60) {
		t.Error("Verdict(nil, 60) should be phishing")
	}

	if got := s.Explain(nil, false); got != "No significant suspicious indicators detected" {
		t.Errorf("Explain(nil, false) = %q", got)
	}
	if got := s.Explain(nil, true); got == "" {
		t.Error("Explain(nil, true) returned an empty explanation")
	}
}

func TestClampScore(t *testing.T) {
	if got := clampScore(-5); got != 0 {
		t.Errorf("clampScore(-5) = %f", got)
	}
	if got := clampScore(150); got != 100 {
		t.Errorf("clampScore(150) = %f", got)
	}
	if got := clampScore(42); got != 42 {
		t.Errorf("clampScore(42) = %f", got)
	}
}
