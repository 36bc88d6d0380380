package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

// registerAdmin mounts the health checks and the operator endpoints.
// Only /healthz is public.
func registerAdmin(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	admin := r.With(mw.AdminOnly(d.AllowedCIDRS, d.AllowedHosts, d.TrustProxy, d.Logger))
	admin.Get("/readyz", handlers.Readyz(d))
	admin.Get("/infra", handlers.Infra(d))
	admin.Post("/reload", handlers.Reload(d))
}
