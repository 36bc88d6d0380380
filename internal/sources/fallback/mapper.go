package fallback

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/arcade/internal/domain"
)

// Mapper converts catalog file entries to domain.Game values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapGames converts a CatalogFile to []domain.Game, keeping file order.
// Entries without id, name or an absolute embed URL are skipped; repeated ids
// keep their first occurrence.
func (m *Mapper) MapGames(file CatalogFile) ([]domain.Game, error) {
	games := make([]domain.Game, 0, len(file.Games))

	for _, entry := range file.Games {
		id := strings.TrimSpace(entry.ID)
		name := strings.TrimSpace(entry.Name)
		if id == "" || name == "" {
			continue
		}

		if !isAbsoluteURL(entry.EmbedURL) {
			continue
		}

		games = append(games, domain.Game{
			ID:           id,
			Name:         name,
			Description:  strings.TrimSpace(entry.Description),
			Category:     strings.TrimSpace(entry.Category),
			Featured:     entry.Featured,
			ThumbnailURL: strings.TrimSpace(entry.ThumbnailURL),
			EmbedURL:     strings.TrimSpace(entry.EmbedURL),
		})
	}

	games = domain.UniqueByID(games)
	if len(games) == 0 {
		return nil, fmt.Errorf("no valid games found in fallback catalog")
	}

	return games, nil
}

// isAbsoluteURL accepts http(s) URLs with a host.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
