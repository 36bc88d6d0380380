package domain

import (
	"net/url"
	"strings"
)

// DefaultEmbedDenylist lists hosts known to refuse being framed
// (X-Frame-Options or frame-ancestors we cannot override).
var DefaultEmbedDenylist = []string{"orteil.dashnet.org"}

// EmbedResolver decides whether an embed URL can be shown in-frame or must be
// opened in a separate browsing context.
type EmbedResolver struct {
	denylist []string
}

// NewEmbedResolver builds a resolver from a static denylist.
// Entries are lower-cased; empty entries are ignored.
func NewEmbedResolver(denylist []string) *EmbedResolver {
	entries := make([]string, 0, len(denylist))
	for _, d := range denylist {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			entries = append(entries, d)
		}
	}
	return &EmbedResolver{denylist: entries}
}

// IsBlocked reports whether the hostname of embedURL contains a denylisted
// entry, so subdomains of a denylisted domain are blocked too.
// A URL that cannot be parsed is not blocked: the frame is still attempted and
// a real failure surfaces through the frame error signal.
func (r *EmbedResolver) IsBlocked(embedURL string) bool {
	u, err := url.Parse(strings.TrimSpace(embedURL))
	if err != nil {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return false
	}

	for _, d := range r.denylist {
		if strings.Contains(hostname, d) {
			return true
		}
	}
	return false
}

// Denylist returns a copy of the configured entries.
func (r *EmbedResolver) Denylist() []string {
	out := make([]string, len(r.denylist))
	copy(out, r.denylist)
	return out
}
