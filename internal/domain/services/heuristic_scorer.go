package services

import (
	"strings"

	"urlsentry/internal/domain/models"
)

// HeuristicScorer is the deterministic fallback used when no upstream
// classifier answers. A fixed weighted sum over the feature record,
// clamped to [0,100]. Same record, same score, always.
type HeuristicScorer struct{}

// NewHeuristicScorer creates a heuristic scorer
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Indicator weights. High-risk signals (raw IP host, shortener) carry
// the most points; structural noise (deep paths, long queries) the least.
const (
	weightUsesIP         = 30
	weightAtSymbol       = 15
	weightShortened      = 25
	weightSuspiciousTLD  = 15
	weightPrefixSuffix   = 10
	weightNoHTTPS        = 10
	weightKeywordEach    = 8
	weightBrandEach      = 12
	weightHighEntropy    = 10
	weightManySubdomains = 8
	weightLongURL        = 5
	weightDeepPath       = 3
	weightLongQuery      = 2
)

// Score computes the heuristic threat score for a feature record.
// A nil record scores zero: no snapshot means no evidence.
func (s *HeuristicScorer) Score(f *models.URLFeatures) float64 {
	if f == nil {
		return 0
	}

	var score float64

	if f.UsesIP {
		score += weightUsesIP
	}
	if f.AtSymbol {
		score += weightAtSymbol
	}
	if f.IsShortened {
		score += weightShortened
	}
	if f.SuspiciousTLD {
		score += weightSuspiciousTLD
	}
	if f.PrefixSuffix {
		score += weightPrefixSuffix
	}
	if !f.HasHTTPS {
		score += weightNoHTTPS
	}

	score += float64(f.SuspiciousKeywords) * weightKeywordEach
	score += float64(f.BrandKeywords) * weightBrandEach

	if f.DomainEntropy > 4.0 {
		score += weightHighEntropy
	}
	if f.NumSubdomains >= 3 {
		score += weightManySubdomains
	}
	if f.URLLength > 75 {
		score += weightLongURL
	}
	if f.PathDepth > 4 {
		score += weightDeepPath
	}
	if f.QueryParamCount > 5 {
		score += weightLongQuery
	}

	return clampScore(score)
}

// Verdict derives the phishing verdict from a feature record and its
// heuristic score. A raw-IP host combined with any suspicious keyword
// is phishing regardless of the total.
func (s *HeuristicScorer) Verdict(f *models.URLFeatures, score float64) bool {
	if f == nil {
		return score >= 60
	}
	if f.UsesIP && f.SuspiciousKeywords > 0 {
		return true
	}
	return score >= 60
}

// Explain assembles a human-readable explanation from the triggered
// indicators. Registry rows can carry a NULL feature snapshot, so a
// nil record explains like a record with nothing triggered.
func (s *HeuristicScorer) Explain(f *models.URLFeatures, isPhishing bool) string {
	if f == nil {
		f = &models.URLFeatures{}
	}

	var reasons []string

	if f.UsesIP {
		reasons = append(reasons, "Uses IP address instead of domain name")
	}
	if f.AtSymbol {
		reasons = append(reasons, "Contains @ symbol in URL")
	}
	if f.IsShortened {
		reasons = append(reasons, "Uses URL shortening service")
	}
	if f.SuspiciousTLD {
		reasons = append(reasons, "Uses suspicious top-level domain")
	}
	if f.BrandKeywords >= 2 {
		reasons = append(reasons, "Contains multiple brand keywords (potential impersonation)")
	}
	if f.SuspiciousKeywords >= 2 {
		reasons = append(reasons, "Contains multiple suspicious keywords")
	}
	if f.DomainEntropy > 4.0 {
		reasons = append(reasons, "Domain name has high randomness")
	}

	if len(reasons) == 0 {
		if isPhishing {
			return "Multiple subtle indicators suggest this may be malicious"
		}
		return "No significant suspicious indicators detected"
	}

	return strings.Join(reasons, "; ")
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
