package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arcade/internal/catalog"
	"github.com/MrSnakeDoc/arcade/internal/domain"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/logger"
)

type gamesResponse struct {
	Status    catalog.Status `json:"status"`
	Source    catalog.Source `json:"source,omitempty"`
	Stale     bool           `json:"stale"`
	FetchedAt *time.Time     `json:"fetchedAt,omitempty"`
	Query     string         `json:"query,omitempty"`
	Category  string         `json:"category"`
	Total     int            `json:"total"`
	Games     []domain.Game  `json:"games"`
}

type gameResponse struct {
	Game    domain.Game    `json:"game"`
	Source  catalog.Source `json:"source"`
	Blocked bool           `json:"blocked"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

// ListGames serves the catalog view: the whole list narrowed by ?q= and ?category=.
// With ?wait=false it never blocks and may answer 202 while the catalog is pending.
func ListGames(d deps.Deps) http.HandlerFunc {
	return listHandler(d, catalog.KindAll, d.Catalog.ListAll)
}

// FeaturedGames serves the featured list, with the same query options as ListGames.
func FeaturedGames(d deps.Deps) http.HandlerFunc {
	return listHandler(d, catalog.KindFeatured, d.Catalog.ListFeatured)
}

// SearchGames asks the remote search first and falls back to a local filter.
func SearchGames(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		snap := d.Catalog.Search(r.Context(), term)

		d.Logger.Debug("catalog search",
			logger.String("term", term),
			logger.String("source", string(snap.Source)),
			logger.Int("results", len(snap.Games)))

		writeJSON(w, http.StatusOK, toGamesResponse(snap, strings.TrimSpace(term), domain.CategoryAll, snap.Games))
	}
}

// GetGame resolves one game, remote first then fallback.
func GetGame(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		game, source, err := d.Catalog.GetByID(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}

		writeJSON(w, http.StatusOK, gameResponse{
			Game:    game,
			Source:  source,
			Blocked: d.Resolver.IsBlocked(game.EmbedURL),
		})
	}
}

// Categories lists "All" followed by the categories present in the catalog.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Catalog.ListAll(r.Context())
		writeJSON(w, http.StatusOK, categoriesResponse{
			Categories: domain.Categories(snap.Games),
		})
	}
}

func listHandler(d deps.Deps, kind catalog.Kind, list func(context.Context) catalog.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := q.Get("q")
		category := q.Get("category")
		if category == "" {
			category = domain.CategoryAll
		}

		wait := true
		if raw := q.Get("wait"); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "wait must be a boolean")
				return
			}
			wait = b
		}

		var snap catalog.Snapshot
		if wait {
			snap = list(r.Context())
		} else {
			snap = d.Catalog.Peek(kind)
		}

		if snap.Status == catalog.StatusPending {
			writeJSON(w, http.StatusAccepted, toGamesResponse(snap, query, category, snap.Games))
			return
		}

		filtered := domain.Filter(snap.Games, query, category)
		writeJSON(w, http.StatusOK, toGamesResponse(snap, strings.TrimSpace(query), category, filtered))
	}
}

func toGamesResponse(snap catalog.Snapshot, query, category string, games []domain.Game) gamesResponse {
	resp := gamesResponse{
		Status:   snap.Status,
		Source:   snap.Source,
		Stale:    snap.Stale,
		Query:    query,
		Category: category,
		Total:    len(snap.Games),
		Games:    games,
	}
	if !snap.FetchedAt.IsZero() {
		fetched := snap.FetchedAt
		resp.FetchedAt = &fetched
	}
	if resp.Games == nil {
		resp.Games = []domain.Game{}
	}
	return resp
}
