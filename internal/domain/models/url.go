package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisTier represents the quality level of an analysis
type AnalysisTier string

const (
	TierCached   AnalysisTier = "cached"
	TierStandard AnalysisTier = "standard"
	TierDeep     AnalysisTier = "deep"
)

// Subsumes reports whether a stored result at tier t satisfies a request
// at tier req. Deep analysis covers standard requests; the reverse never
// holds.
func (t AnalysisTier) Subsumes(req AnalysisTier) bool {
	if t == TierDeep {
		return true
	}
	return t == TierStandard && req != TierDeep
}

// ScoringMethod identifies which rules produced a persisted score
type ScoringMethod string

const (
	ScoringHeuristicV1 ScoringMethod = "heuristic_v1"
	ScoringStandardV1  ScoringMethod = "classifier_standard_v1"
	ScoringDeepV1      ScoringMethod = "classifier_deep_v1"
)

// AnalysisSource identifies the client surface that requested an analysis
type AnalysisSource string

const (
	SourceWebClient        AnalysisSource = "web_client"
	SourceBrowserExtension AnalysisSource = "browser_extension"
	SourceChatbot          AnalysisSource = "chatbot"
)

// URLFeatures is the canonical feature record extracted from a URL.
// Deep-tier fields default to zero values when only lightweight
// extraction ran.
type URLFeatures struct {
	UsesIP             bool    `json:"uses_ip"`
	AtSymbol           bool    `json:"at_symbol"`
	URLLength          int     `json:"url_length"`
	NumDots            int     `json:"num_dots"`
	NumSpecialChars    int     `json:"num_special_chars"`
	NumSubdomains      int     `json:"num_subdomains"`
	HasHTTPS           bool    `json:"has_https"`
	HasHyphen          bool    `json:"has_hyphen"`
	IsShortened        bool    `json:"is_shortened"`
	PrefixSuffix       bool    `json:"prefix_suffix"`
	DomainEntropy      float64 `json:"domain_entropy"`
	DigitRatio         float64 `json:"digit_ratio"`
	SuspiciousTLD      bool    `json:"suspicious_tld"`
	SuspiciousKeywords int     `json:"suspicious_keywords"`
	BrandKeywords      int     `json:"brand_keywords"`
	PathDepth          int     `json:"path_depth"`
	QueryParamCount    int     `json:"query_param_count"`

	// Deep-tier page inspection flags
	HasIframe            bool    `json:"has_iframe"`
	HasPopup             bool    `json:"has_popup"`
	RightClickDisabled   bool    `json:"right_click_disabled"`
	DomainAgeDays        int     `json:"domain_age_days"`
	ExternalRequestRatio float64 `json:"external_request_ratio"`
}

// AnalyzedURL is the registry row for a URL that has been analyzed.
// The normalized URL is the unique key; counters only ever increase.
type AnalyzedURL struct {
	ID                    uuid.UUID     `json:"id"`
	URL                   string        `json:"url"`
	IsPhishing            bool          `json:"is_phishing"`
	ThreatScore           float64       `json:"threat_score"`
	ScoringMethod         ScoringMethod `json:"scoring_method"`
	Tier                  AnalysisTier  `json:"tier"`
	Features              *URLFeatures  `json:"features,omitempty"`
	Sources               []string      `json:"sources"`
	AnalyzeCount          int64         `json:"analyze_count"`
	DetectedPhishingCount int64         `json:"detected_phishing_count"`
	FirstAnalyzed         time.Time     `json:"first_analyzed"`
	LastAnalyzed          time.Time     `json:"last_analyzed"`
}

// DetectionSession is the audit record for one analysis request.
// Immutable once created; many sessions reference one AnalyzedURL.
type DetectionSession struct {
	ID        uuid.UUID    `json:"id"`
	URLID     uuid.UUID    `json:"url_id"`
	Source    string       `json:"source"`
	UserAgent string       `json:"user_agent,omitempty"`
	ClientIP  string       `json:"client_ip,omitempty"`
	Tier      AnalysisTier `json:"tier"`
	CacheHit  bool         `json:"cache_hit"`
	CreatedAt time.Time    `json:"created_at"`
}

// AnalyzeRequest is the body of POST /url/analyze
type AnalyzeRequest struct {
	URL          string `json:"url"`
	DeepAnalysis bool   `json:"deepAnalysis,omitempty"`
	Source       string `json:"source,omitempty"`
}

// AnalyzeBatchRequest is the body of POST /url/analyze-batch
type AnalyzeBatchRequest struct {
	URLs   []string `json:"urls"`
	Source string   `json:"source,omitempty"`
}

// AnalysisResult is the response for a single analyzed URL
type AnalysisResult struct {
	URL           string        `json:"url"`
	IsPhishing    bool          `json:"isPhishing"`
	ThreatScore   float64       `json:"threatScore"`
	Probability   float64       `json:"probability"`
	Details       string        `json:"details"`
	Features      *URLFeatures  `json:"features"`
	AnalysisType  AnalysisTier  `json:"analysisType"`
	ScoringMethod ScoringMethod `json:"scoringMethod"`
}

// BatchAnalysisResult wraps per-URL results for batch analysis
type BatchAnalysisResult struct {
	Results []*BatchAnalysisItem `json:"results"`
	Total   int                  `json:"total"`
}

// BatchAnalysisItem is one entry of a batch analysis response
type BatchAnalysisItem struct {
	URL    string          `json:"url"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
