package redis

import (
	"strings"
)

const (
	// KeyPrefixCatalog is the prefix shared by every catalog cache key
	KeyPrefixCatalog = "arcade:catalog:"
	// KeyPrefixGame is the prefix for by-id lookups
	KeyPrefixGame = KeyPrefixCatalog + "game:"
	// KeyPrefixSearch is the prefix for remote search results
	KeyPrefixSearch = KeyPrefixCatalog + "search:"
	// KeyAllGames is the key of the full remote list
	KeyAllGames = KeyPrefixCatalog + "all"
	// KeyFeaturedGames is the key of the remote featured list
	KeyFeaturedGames = KeyPrefixCatalog + "featured"
)

// AllGamesKey returns the Redis key for the full list
func AllGamesKey() string {
	return KeyAllGames
}

// FeaturedGamesKey returns the Redis key for the featured list
func FeaturedGamesKey() string {
	return KeyFeaturedGames
}

// GameKey returns the Redis key for a single game by ID
func GameKey(id string) string {
	return KeyPrefixGame + id
}

// SearchKey returns the Redis key for a search term.
// Terms are trimmed and lower-cased so equivalent searches share an entry.
func SearchKey(term string) string {
	return KeyPrefixSearch + strings.ToLower(strings.TrimSpace(term))
}
