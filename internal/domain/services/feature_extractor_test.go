package services

import (
	"errors"
	"reflect"
	"testing"

	"urlsentry/internal/domain/models"
)

func TestExtractDeterministic(t *testing.T) {
	e := NewFeatureExtractor()

	first, err := e.Extract("https://paypal-secure-login.tk/verify/account?id=1")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	second, err := e.Extract("https://paypal-secure-login.tk/verify/account?id=1")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different records:\n%+v\n%+v", first, second)
	}
}

func TestExtractIPHostWithKeyword(t *testing.T) {
	e := NewFeatureExtractor()

	f, err := e.Extract("http://192.168.1.5/login")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !f.UsesIP {
		t.Error("expected UsesIP for dotted-quad host")
	}
	if f.SuspiciousKeywords == 0 {
		t.Error("expected suspicious keyword hit for /login")
	}
	if f.HasHTTPS {
		t.Error("plain http URL should not report HTTPS")
	}
}

func TestExtractFeatureSignals(t *testing.T) {
	e := NewFeatureExtractor()

	tests := []struct {
		name  string
		url   string
		check func(t *testing.T, f *models.URLFeatures)
	}{
		{
			name: "shortener",
			url:  "https://bit.ly/3xYzAbC",
			check: func(t *testing.T, f *models.URLFeatures) {
				if !f.IsShortened {
					t.Error("expected IsShortened for bit.ly")
				}
			},
		},
		{
			name: "suspicious tld",
			url:  "http://free-prizes.tk",
			check: func(t *testing.T, f *models.URLFeatures) {
				if !f.SuspiciousTLD {
					t.Error("expected SuspiciousTLD for .tk")
				}
				if !f.PrefixSuffix {
					t.Error("expected PrefixSuffix for hyphenated domain")
				}
			},
		},
		{
			name: "brand in subdomain",
			url:  "https://paypal.account-check.xyz/signin",
			check: func(t *testing.T, f *models.URLFeatures) {
				if f.BrandKeywords == 0 {
					t.Error("expected brand keyword for paypal outside paypal.com")
				}
			},
		},
		{
			name: "legitimate brand domain",
			url:  "https://www.paypal.com/signin",
			check: func(t *testing.T, f *models.URLFeatures) {
				if f.BrandKeywords != 0 {
					t.Errorf("paypal.com itself should not count as impersonation, got %d", f.BrandKeywords)
				}
			},
		},
		{
			name: "at symbol",
			url:  "http://user@evil.com/path",
			check: func(t *testing.T, f *models.URLFeatures) {
				if !f.AtSymbol {
					t.Error("expected AtSymbol")
				}
			},
		},
		{
			name: "subdomain count",
			url:  "https://a.b.c.example.com",
			check: func(t *testing.T, f *models.URLFeatures) {
				if f.NumSubdomains != 3 {
					t.Errorf("expected 3 subdomains, got %d", f.NumSubdomains)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := e.Extract(tt.url)
			if err != nil {
				t.Fatalf("Extract(%q) failed: %v", tt.url, err)
			}
			tt.check(t, f)
		})
	}
}

func TestExtractInvalidURL(t *testing.T) {
	e := NewFeatureExtractor()

	for _, raw := range []string{"", "   ", "no-dots-no-scheme"} {
		if _, err := e.Extract(raw); !errors.Is(err, models.ErrInvalidURL) {
			t.Errorf("Extract(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP://EXAMPLE.COM/", "http://example.com"},
		{"https://example.com:443/path", "https://example.com/path"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"example.com/page#frag", "http://example.com/page"},
		{"https://Example.com/Path?q=1", "https://example.com/Path?q=1"},
	}

	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeURL(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeURL(""); !errors.Is(err, models.ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL for empty input, got %v", err)
	}
}

func TestShannonEntropy(t *testing.T) {
	if got := shannonEntropy(""); got != 0 {
		t.Errorf("entropy of empty string = %f, want 0", got)
	}
	if got := shannonEntropy("aaaa"); got != 0 {
		t.Errorf("entropy of uniform string = %f, want 0", got)
	}
	low := shannonEntropy("example.com")
	high := shannonEntropy("xk9f2qw7zj3v.biz")
	if high <= low {
		t.Errorf("random-looking host should have higher entropy: %f vs %f", high, low)
	}
}
