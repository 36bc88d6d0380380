package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/logger"
	"github.com/MrSnakeDoc/arcade/internal/utils"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Flushed   int    `json:"flushed,omitempty"`
	Message   string `json:"message"`
}

// Reload triggers a manual reload of the fallback catalog.
// Remote results mirrored in the shared cache are dropped as well, so the
// next catalog read goes back to the remote.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual fallback reload triggered via endpoint",
				logger.String("remote_ip", ip))

			flushed := 0
			if d.CatalogCache != nil {
				n, err := d.CatalogCache.FlushCatalog(r.Context())
				if err != nil {
					d.Logger.Warn("failed to flush shared catalog cache", logger.Error(err))
				}
				flushed = n
				d.Logger.Info("shared catalog cache flushed", logger.Int("keys", n))
			}

			writeJSON(w, http.StatusAccepted, reloadResponse{
				Triggered: true,
				Flushed:   flushed,
				Message:   "reload triggered",
			})
		default:
			d.Logger.Warn("fallback reload already in progress",
				logger.String("remote_ip", ip))
			writeJSON(w, http.StatusTooManyRequests, reloadResponse{
				Message: "reload already in progress, please wait",
			})
		}
	}
}
