// Package classify decides whether a navigated URL points at an adult site.
package classify

import (
	neturl "net/url"
	"strings"
)

// DefaultKeywords is the built-in detection keyword set. Matching is plain
// case-insensitive substring matching against the hostname, not whole-word.
var DefaultKeywords = []string{
	"porn",
	"xxx",
	"adult",
	"nsfw",
	"sex",
	"erotic",
}

// Classifier matches hostnames against a keyword list and user-supplied
// custom sites. The zero value is not usable; construct with New.
type Classifier struct {
	keywords []string
}

// New creates a classifier using the default keywords plus extra ones from
// configuration. Keywords are lowercased; empty entries are dropped.
func New(extraKeywords []string) *Classifier {
	keywords := make([]string, 0, len(DefaultKeywords)+len(extraKeywords))
	seen := make(map[string]bool)
	for _, kw := range append(append([]string{}, DefaultKeywords...), extraKeywords...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return &Classifier{keywords: keywords}
}

// Keywords returns the active keyword list.
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// IsAdultURL reports whether the URL's hostname contains any active keyword
// or any normalized custom site as a substring.
//
// Substring matching is intentionally loose: with customSites containing
// "example.com", both "sub.example.com" and "example.com.evil.net" match.
// That over-match is the documented behavior, not a bug.
func (c *Classifier) IsAdultURL(rawURL string, customSites []string) bool {
	hostname := Hostname(rawURL)
	if hostname == "" {
		// Malformed URL: fail closed to "not adult" rather than erroring.
		return false
	}

	for _, kw := range c.keywords {
		if strings.Contains(hostname, kw) {
			return true
		}
	}

	for _, site := range customSites {
		normalized := NormalizeDomain(site)
		if normalized != "" && strings.Contains(hostname, normalized) {
			return true
		}
	}

	return false
}

// Hostname extracts the lowercase hostname from a URL, or "" when the URL
// does not parse or has no host.
func Hostname(rawURL string) string {
	u, err := neturl.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// NormalizeDomain normalizes a user-supplied domain or URL to a lowercase
// hostname. Input that does not parse as a URL with a host is lowercased
// and trimmed as-is.
func NormalizeDomain(domainOrURL string) string {
	if host := Hostname(domainOrURL); host != "" {
		return host
	}
	return strings.ToLower(strings.TrimSpace(domainOrURL))
}
