package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"urlsentry/internal/config"
	"urlsentry/internal/domain/models"
	"urlsentry/pkg/logger"
)

// ClassifierOutcome is a successful answer from an upstream classifier
type ClassifierOutcome struct {
	IsPhishing  bool
	ThreatScore float64
	Probability float64
	Details     string
	Features    map[string]any
	ModelName   string
}

// UpstreamFailure describes why a classifier call did not produce an
// outcome. The dispatcher branches on it explicitly instead of treating
// failures as control flow.
type UpstreamFailure struct {
	Timeout bool
	Err     error
}

func (f *UpstreamFailure) Error() string {
	if f.Timeout {
		return fmt.Sprintf("%v: %v", models.ErrUpstreamTimeout, f.Err)
	}
	return fmt.Sprintf("%v: %v", models.ErrUpstreamError, f.Err)
}

// ClassifierClient calls the tier-selected upstream scoring service over
// HTTP with a bounded timeout. Every call resolves to exactly one of
// (*ClassifierOutcome, nil) or (nil, *UpstreamFailure).
type ClassifierClient struct {
	standard   config.ClassifierConfig
	deep       config.ClassifierConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClassifierClient creates a classifier client
func NewClassifierClient(cfg config.ClassifiersConfig, log *logger.Logger) *ClassifierClient {
	return &ClassifierClient{
		standard:   cfg.Standard,
		deep:       cfg.Deep,
		httpClient: &http.Client{},
		logger:     log.WithComponent("classifier-client"),
	}
}

type classifyRequest struct {
	URL    string `json:"url"`
	Client string `json:"client"`
}

type classifyResponse struct {
	IsPhishing  bool           `json:"is_phishing"`
	ThreatScore float64        `json:"threat_score"`
	Probability float64        `json:"probability"`
	Details     string         `json:"details,omitempty"`
	Features    map[string]any `json:"features,omitempty"`
}

// Classify sends the URL to the classifier for the requested tier
func (c *ClassifierClient) Classify(ctx context.Context, url string, tier models.AnalysisTier, source string) (*ClassifierOutcome, *UpstreamFailure) {
	cfg := c.standard
	if tier == models.TierDeep {
		cfg = c.deep
	}

	if cfg.Endpoint == "" {
		return nil, &UpstreamFailure{Err: errors.New("no classifier endpoint configured")}
	}

	body, err := json.Marshal(classifyRequest{URL: url, Client: source})
	if err != nil {
		return nil, &UpstreamFailure{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamFailure{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timeout := callCtx.Err() == context.DeadlineExceeded
		c.logger.Warn().Err(err).Str("tier", string(tier)).Bool("timeout", timeout).Msg("classifier call failed")
		return nil, &UpstreamFailure{Timeout: timeout, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("tier", string(tier)).Msg("classifier returned non-2xx")
		return nil, &UpstreamFailure{Err: fmt.Errorf("classifier returned status %d", resp.StatusCode)}
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &UpstreamFailure{Err: fmt.Errorf("malformed classifier response: %w", err)}
	}

	return &ClassifierOutcome{
		IsPhishing:  parsed.IsPhishing,
		ThreatScore: parsed.ThreatScore,
		Probability: parsed.Probability,
		Details:     parsed.Details,
		Features:    parsed.Features,
		ModelName:   cfg.ModelName,
	}, nil
}

// ModelName returns the configured model name for a tier
func (c *ClassifierClient) ModelName(tier models.AnalysisTier) string {
	if tier == models.TierDeep {
		return c.deep.ModelName
	}
	return c.standard.ModelName
}

// mergeUpstreamFeatures folds classifier-reported feature fields into
// the canonical record. Upstream naming differs per tier, so aliases
// are normalized here at the boundary and nowhere else.
func mergeUpstreamFeatures(f *models.URLFeatures, upstream map[string]any) {
	if upstream == nil {
		return
	}

	if v, ok := upstreamBool(upstream, "has_iframe", "Iframe"); ok {
		f.HasIframe = v
	}
	if v, ok := upstreamBool(upstream, "has_popup", "popUpWidnow", "popup_window"); ok {
		f.HasPopup = v
	}
	if v, ok := upstreamBool(upstream, "right_click_disabled", "RightClick"); ok {
		f.RightClickDisabled = v
	}
	if v, ok := upstreamFloat(upstream, "domain_age_days", "AgeofDomain"); ok {
		f.DomainAgeDays = int(v)
	}
	if v, ok := upstreamFloat(upstream, "external_request_ratio", "RequestURL"); ok {
		f.ExternalRequestRatio = v
	}
}

func upstreamBool(m map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v, true
		case float64:
			return v > 0, true
		}
	}
	return false, false
}

func upstreamFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return v, true
		}
	}
	return 0, false
}
