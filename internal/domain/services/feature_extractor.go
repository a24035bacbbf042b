package services

import (
	"math"
	"net/url"
	"regexp"
	"strings"

	"urlsentry/internal/domain/models"
)

// FeatureExtractor turns a raw URL string into the canonical feature
// record. Extraction is pure and deterministic: no I/O, no clock, same
// input always yields the same record. Malformed components degrade to
// zero values instead of aborting.
type FeatureExtractor struct {
	suspiciousTLDs map[string]bool
	shorteners     map[string]bool
	keywords       []string
	brands         []string
}

var ipHostPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// NewFeatureExtractor creates a feature extractor with the built-in
// risk lists
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{
		suspiciousTLDs: map[string]bool{
			"tk": true, "ml": true, "ga": true, "cf": true, "gq": true,
			"xyz": true, "top": true, "club": true, "work": true,
			"click": true, "link": true, "loan": true, "zip": true,
		},
		shorteners: map[string]bool{
			"bit.ly": true, "tinyurl.com": true, "t.co": true,
			"goo.gl": true, "is.gd": true, "cli.gs": true, "ow.ly": true,
		},
		keywords: []string{
			"login", "signin", "verify", "account", "security",
			"update", "confirm", "payment",
		},
		brands: []string{
			"paypal", "apple", "google", "amazon", "microsoft",
			"netflix", "facebook", "bank",
		},
	}
}

// Extract parses rawURL and computes the feature record. Returns
// models.ErrInvalidURL when the URL cannot be parsed at all.
func (e *FeatureExtractor) Extract(rawURL string) (*models.URLFeatures, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, models.ErrInvalidURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" && parsed.Opaque == "" && !strings.Contains(trimmed, ".") {
		return nil, models.ErrInvalidURL
	}

	// Bare domains without a scheme still parse, just with everything
	// in Path. Re-parse with a scheme so Host is populated.
	if parsed.Host == "" {
		parsed, err = url.Parse("http://" + trimmed)
		if err != nil || parsed.Host == "" {
			return nil, models.ErrInvalidURL
		}
	}

	host := strings.ToLower(parsed.Hostname())
	lower := strings.ToLower(trimmed)

	f := &models.URLFeatures{
		URLLength: len(trimmed),
		NumDots:   strings.Count(trimmed, "."),
		AtSymbol:  strings.Contains(trimmed, "@"),
		HasHTTPS:  parsed.Scheme == "https",
		UsesIP:    ipHostPattern.MatchString(host),
	}

	f.NumSpecialChars = countSpecialChars(trimmed)
	f.DigitRatio = charRatio(host, func(r rune) bool { return r >= '0' && r <= '9' })
	f.DomainEntropy = shannonEntropy(host)

	domain := registrableDomain(host)
	f.HasHyphen = strings.Contains(domain, "-")
	f.PrefixSuffix = strings.Contains(strings.SplitN(domain, ".", 2)[0], "-")
	f.IsShortened = e.shorteners[domain]

	if !f.UsesIP {
		labels := strings.Split(host, ".")
		if len(labels) > 2 {
			f.NumSubdomains = len(labels) - 2
		}
		if tld := labels[len(labels)-1]; e.suspiciousTLDs[tld] {
			f.SuspiciousTLD = true
		}
	}

	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			f.SuspiciousKeywords++
		}
	}
	for _, brand := range e.brands {
		if strings.Contains(host, brand) && !strings.HasSuffix(host, brand+".com") {
			f.BrandKeywords++
		}
	}

	if path := strings.Trim(parsed.Path, "/"); path != "" {
		f.PathDepth = len(strings.Split(path, "/"))
	}
	f.QueryParamCount = len(parsed.Query())

	return f, nil
}

// NormalizeURL canonicalizes a URL for use as the registry key:
// lowercased scheme and host, default ports and fragments stripped,
// trailing slash on a bare path removed.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", models.ErrInvalidURL
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", models.ErrInvalidURL
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if (parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80")) ||
		(parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443")) {
		parsed.Host = parsed.Hostname()
	}

	if parsed.Path == "/" {
		parsed.Path = ""
	}

	return parsed.String(), nil
}

// registrableDomain returns the last two labels of a host, or the host
// itself when it has fewer
func registrableDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// shannonEntropy computes the Shannon entropy of a string in bits
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	freq := make(map[rune]float64)
	for _, r := range s {
		freq[r]++
	}

	length := float64(len([]rune(s)))
	var entropy float64
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// charRatio returns the fraction of characters matching the predicate
func charRatio(s string, match func(rune) bool) float64 {
	if s == "" {
		return 0
	}

	var hits int
	var total int
	for _, r := range s {
		total++
		if match(r) {
			hits++
		}
	}

	return float64(hits) / float64(total)
}

func countSpecialChars(s string) int {
	var count int
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '/', r == ':':
		default:
			count++
		}
	}
	return count
}
