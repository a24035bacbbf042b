package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"urlsentry/internal/config"
	"urlsentry/internal/domain/models"
	"urlsentry/pkg/logger"
)

func newTestClient(endpoint string, timeout time.Duration) *ClassifierClient {
	return NewClassifierClient(config.ClassifiersConfig{
		Standard: config.ClassifierConfig{
			Endpoint:  endpoint,
			Timeout:   timeout,
			ModelName: "url_classifier_standard",
		},
		Deep: config.ClassifierConfig{
			Endpoint:  endpoint,
			Timeout:   timeout,
			ModelName: "url_classifier_deep",
		},
	}, logger.NewDefault())
}

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_phishing":true,"threat_score":92,"probability":0.92,"details":"known phishing kit"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2*time.Second)

	outcome, failure := c.Classify(context.Background(), "http://evil.example", models.TierStandard, "web_client")
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure)
	}
	if !outcome.IsPhishing || outcome.Probability != 0.92 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if outcome.ModelName != "url_classifier_standard" {
		t.Errorf("expected standard model name, got %q", outcome.ModelName)
	}
}

func TestClassifyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2*time.Second)

	outcome, failure := c.Classify(context.Background(), "http://example.org", models.TierStandard, "web_client")
	if outcome != nil {
		t.Fatalf("expected no outcome on 500, got %+v", outcome)
	}
	if failure == nil {
		t.Fatal("expected failure on 500")
	}
	if failure.Timeout {
		t.Error("500 response should not be flagged as timeout")
	}
}

func TestClassifyMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_phishing": not json`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2*time.Second)

	outcome, failure := c.Classify(context.Background(), "http://example.org", models.TierDeep, "chatbot")
	if outcome != nil {
		t.Fatalf("expected no outcome on malformed body, got %+v", outcome)
	}
	if failure == nil {
		t.Fatal("expected failure on malformed body")
	}
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"is_phishing":false}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 20*time.Millisecond)

	outcome, failure := c.Classify(context.Background(), "http://example.org", models.TierStandard, "web_client")
	if outcome != nil {
		t.Fatalf("expected no outcome on timeout, got %+v", outcome)
	}
	if failure == nil {
		t.Fatal("expected failure on timeout")
	}
	if !failure.Timeout {
		t.Error("deadline exceeded should be flagged as timeout")
	}
}

func TestClassifyNoEndpoint(t *testing.T) {
	c := newTestClient("", time.Second)

	outcome, failure := c.Classify(context.Background(), "http://example.org", models.TierStandard, "web_client")
	if outcome != nil || failure == nil {
		t.Fatal("expected failure when no endpoint is configured")
	}
}

func TestMergeUpstreamFeatures(t *testing.T) {
	f := &models.URLFeatures{}

	mergeUpstreamFeatures(f, map[string]any{
		"has_iframe":             true,
		"popUpWidnow":            float64(1),
		"right_click_disabled":   true,
		"domain_age_days":        float64(12),
		"external_request_ratio": 0.8,
	})

	if !f.HasIframe || !f.HasPopup || !f.RightClickDisabled {
		t.Errorf("boolean flags not merged: %+v", f)
	}
	if f.DomainAgeDays != 12 {
		t.Errorf("DomainAgeDays = %d, want 12", f.DomainAgeDays)
	}
	if f.ExternalRequestRatio != 0.8 {
		t.Errorf("ExternalRequestRatio = %f, want 0.8", f.ExternalRequestRatio)
	}

	// nil map is a no-op
	mergeUpstreamFeatures(f, nil)
	if f.DomainAgeDays != 12 {
		t.Error("nil merge must not reset fields")
	}
}
