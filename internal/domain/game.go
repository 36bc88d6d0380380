package domain

// Game represents one playable entry of the arcade catalog.
//
// It is NOT tied to the remote backend or the fallback file.
// Both sources are mapped into this structure before anything else sees them.
//
// A Game is uniquely identified by its ID within any list the catalog returns.
// Values are never mutated in place; a reload produces a new list.
type Game struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque unique identifier.
	// Example: cookie-clicker
	ID string `json:"id" yaml:"id"`

	// ─────────────────────────────
	// Display
	// ─────────────────────────────

	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// Category is drawn from an open but conventionally small set.
	// Example: Puzzle
	Category string `json:"category" yaml:"category"`

	// Featured marks games promoted on the catalog front page.
	Featured bool `json:"featured" yaml:"featured"`

	// ThumbnailURL is optional. The view renders a deterministic
	// placeholder when it is empty or fails to load.
	ThumbnailURL string `json:"thumbnailUrl,omitempty" yaml:"thumbnailUrl,omitempty"`

	// ─────────────────────────────
	// Playable content
	// ─────────────────────────────

	// EmbedURL is the only input of the embed resolver and the play session.
	// Example: https://orteil.dashnet.org/cookieclicker/
	EmbedURL string `json:"embedUrl" yaml:"embedUrl"`
}

// UniqueByID drops records whose ID was already seen, keeping the first one.
// The relative order of the kept records is preserved.
func UniqueByID(games []Game) []Game {
	seen := make(map[string]bool, len(games))
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	return out
}

// FeaturedOnly returns the featured subset of games in input order.
func FeaturedOnly(games []Game) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		if g.Featured {
			out = append(out, g)
		}
	}
	return out
}

// FindByID returns the game with the given id.
func FindByID(games []Game, id string) (Game, bool) {
	for _, g := range games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}
