package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/arcade/internal/catalog"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool     `json:"ok"`
	GamesLoaded *int     `json:"games_loaded,omitempty"`
	LastReload  string   `json:"last_reload,omitempty"`
	Source      string   `json:"source,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Denylist    []string `json:"denylist,omitempty"`
	Active      *int     `json:"active,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gamesCount := d.MemoryIndex.Count()
		lastReload := d.MemoryIndex.GetLastReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		active := d.Sessions.Count()

		components := map[string]componentStatus{
			"fallback": {
				OK:          gamesCount > 0,
				GamesLoaded: &gamesCount,
				LastReload:  lastReloadStr,
				Source:      d.MemoryIndex.Source(),
			},
			"remote": checkRemote(d),
			"redis":  checkRedis(r.Context(), d),
			"embed": {
				OK:       true,
				Denylist: d.Resolver.Denylist(),
			},
			"sessions": {
				OK:     true,
				Active: &active,
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// Nothing to serve when the fallback is empty and the remote is not serving
	if fb, exists := components["fallback"]; exists && !fb.OK {
		if remote, ok := components["remote"]; !ok || remote.Mode != string(catalog.SourceRemote) {
			return "critical"
		}
	}

	// Redis is optional but impacts cache sharing when configured
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "nominal"
}

func checkRemote(d deps.Deps) componentStatus {
	if d.RemoteURL == "" {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "fallback-only",
		}
	}

	snap := d.Catalog.Peek(catalog.KindAll)
	if snap.Status == catalog.StatusPending {
		return componentStatus{OK: true, Mode: "pending"}
	}

	return componentStatus{
		OK:     snap.Source == catalog.SourceRemote,
		Mode:   string(snap.Source),
		Impact: impactFor(snap.Source),
	}
}

func impactFor(src catalog.Source) string {
	if src == catalog.SourceRemote {
		return "none"
	}
	return "serving-fallback"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.CatalogCache == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "cache-not-shared",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.CatalogCache.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "cache-not-shared",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:   true,
		Mode: "optimal",
	}
}
