package domain

import "testing"

func TestIsBlocked(t *testing.T) {
	resolver := NewEmbedResolver([]string{"orteil.dashnet.org", " ", "Blocked.Example"})

	tests := []struct {
		name     string
		embedURL string
		expected bool
	}{
		{
			name:     "exact denylisted host",
			embedURL: "https://orteil.dashnet.org/cookie",
			expected: true,
		},
		{
			name:     "subdomain of denylisted host",
			embedURL: "https://www.orteil.dashnet.org/cookieclicker/",
			expected: true,
		},
		{
			name:     "hostname is case insensitive",
			embedURL: "https://ORTEIL.DashNet.org/",
			expected: true,
		},
		{
			name:     "denylist entry is lower-cased",
			embedURL: "https://games.blocked.example/play",
			expected: true,
		},
		{
			name:     "non matching host",
			embedURL: "https://play2048.co/",
			expected: false,
		},
		{
			name:     "denylisted string only in path",
			embedURL: "https://mirror.example.com/orteil.dashnet.org/",
			expected: false,
		},
		{
			name:     "unparsable url fails open",
			embedURL: "http://[::1",
			expected: false,
		},
		{
			name:     "relative url has no host",
			embedURL: "not a url",
			expected: false,
		},
		{
			name:     "empty url",
			embedURL: "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.IsBlocked(tt.embedURL); got != tt.expected {
				t.Errorf("IsBlocked(%q) = %v, want %v", tt.embedURL, got, tt.expected)
			}
		})
	}
}

func TestNewEmbedResolverIgnoresEmptyEntries(t *testing.T) {
	resolver := NewEmbedResolver([]string{"", "  ", "a.example"})
	if got := resolver.Denylist(); len(got) != 1 || got[0] != "a.example" {
		t.Errorf("Denylist() = %v, want [a.example]", got)
	}

	// An empty entry would otherwise match every hostname.
	if resolver.IsBlocked("https://free.example.org/") {
		t.Error("IsBlocked() should not block unrelated hosts")
	}
}

func TestEmptyDenylistBlocksNothing(t *testing.T) {
	resolver := NewEmbedResolver(nil)
	if resolver.IsBlocked("https://orteil.dashnet.org/cookie") {
		t.Error("IsBlocked() with empty denylist should return false")
	}
}
