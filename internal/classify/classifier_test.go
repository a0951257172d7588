package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_DefaultKeywords(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"keyword in hostname", "https://free-porn.example/", true},
		{"keyword regardless of scheme and path", "http://xxxmovies.net/some/deep/path?q=1", true},
		{"keyword case-insensitive", "https://NSFW-site.COM/", true},
		{"clean hostname", "https://news.ycombinator.com/", false},
		{"keyword only in path does not match", "https://example.com/porn", false},
		{"malformed url", "http://%zz/", false},
		{"empty url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsAdultURL(tt.url, nil))
		})
	}
}

func TestClassifier_CustomSites(t *testing.T) {
	c := New(nil)
	sites := []string{"example.com"}

	t.Run("subdomain matches", func(t *testing.T) {
		assert.True(t, c.IsAdultURL("https://sub.example.com/page", sites))
	})

	t.Run("loose substring over-match is intentional", func(t *testing.T) {
		assert.True(t, c.IsAdultURL("https://example.com.evil.net/", sites))
	})

	t.Run("unrelated host does not match", func(t *testing.T) {
		assert.False(t, c.IsAdultURL("https://example.org/", sites))
	})

	t.Run("empty custom list still applies keywords", func(t *testing.T) {
		assert.True(t, c.IsAdultURL("https://sexsite.example/", nil))
	})

	t.Run("custom entries may be full URLs", func(t *testing.T) {
		assert.True(t, c.IsAdultURL("https://bad.example.net/", []string{"https://Bad.Example.net/landing"}))
	})
}

func TestClassifier_ExtraKeywords(t *testing.T) {
	c := New([]string{"Gamble", "", "gamble"})

	assert.True(t, c.IsAdultURL("https://gamble-now.example/", nil))
	// built-ins are kept alongside extras
	assert.True(t, c.IsAdultURL("https://adultsite.example/", nil))
	// dedup and empty filtering
	assert.Len(t, c.Keywords(), len(DefaultKeywords)+1)
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/path", "example.com"},
		{"example.com", "example.com"},
		{"  MixedCase.Org  ", "mixedcase.org"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDomain(tt.in), "input %q", tt.in)
	}
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "sub.example.com", Hostname("https://sub.Example.com:8443/x"))
	assert.Empty(t, Hostname("not a url"))
	assert.Empty(t, Hostname(""))
}
