package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready         bool `json:"ready"`
	FallbackGames int  `json:"fallback_games"`
}

// Readyz reports ready once the fallback catalog is loaded, since every
// catalog read degrades to it.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := d.MemoryIndex.Count()
		status := http.StatusOK
		if count == 0 {
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, readyzResponse{
			Ready:         count > 0,
			FallbackGames: count,
		})
	}
}
