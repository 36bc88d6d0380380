package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CategoryAll disables category filtering.
const CategoryAll = "All"

// DefaultCategories is the conventional category set shown before any
// catalog data has resolved.
var DefaultCategories = []string{
	CategoryAll,
	"Action",
	"Arcade",
	"Puzzle",
	"Racing",
	"Strategy",
	"Word",
	"Card",
	"Idle",
	"Sports",
}

// Filter narrows games by a free-text query and a category.
//
// The query matches when its trimmed, lower-cased form is a substring of the
// name, description or category of a game. The category must match exactly
// unless it is "All" (or empty). Both conditions must hold. Output keeps the
// input order; with no query and "All" the input slice is returned as is.
func Filter(games []Game, query, category string) []Game {
	q := strings.TrimSpace(query)
	byCategory := category != "" && category != CategoryAll

	if q == "" && !byCategory {
		return games
	}

	// Caser is stateful, one per call.
	lower := cases.Lower(language.Und)
	q = lower.String(q)

	out := make([]Game, 0, len(games))
	for _, g := range games {
		if byCategory && g.Category != category {
			continue
		}
		if q != "" && !matchesText(lower, g, q) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// matchesText reports whether any searchable field contains q.
func matchesText(lower cases.Caser, g Game, q string) bool {
	for _, field := range []string{g.Name, g.Description, g.Category} {
		if strings.Contains(lower.String(field), q) {
			return true
		}
	}
	return false
}

// Categories returns "All" followed by the distinct categories of games in
// first-seen order.
func Categories(games []Game) []string {
	out := []string{CategoryAll}
	seen := map[string]bool{CategoryAll: true}
	for _, g := range games {
		if g.Category == "" || seen[g.Category] {
			continue
		}
		seen[g.Category] = true
		out = append(out, g.Category)
	}
	return out
}
