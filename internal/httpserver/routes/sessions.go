package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/mw"
)

func init() {
	Register(registerSessions)
	RegisterStream(registerSessionEvents)
}

func registerSessions(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:      d.RateLimitBurst,
		PerMinute:  d.RateLimitPerMin,
		MaxClients: 10000,
		TrustProxy: d.TrustProxy,
		Logger:     d.Logger,
	})

	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	api.With(limit).Post("/api/sessions", handlers.CreateSession(d))
	api.Get("/api/sessions/{id}", handlers.GetSession(d))
	api.Delete("/api/sessions/{id}", handlers.CloseSession(d))
	api.Post("/api/sessions/{id}/reload", handlers.ReloadSession(d))
	api.Post("/api/sessions/{id}/fullscreen", handlers.ToggleFullscreen(d))
	api.Post("/api/sessions/{id}/open-external", handlers.OpenExternal(d))
	api.Post("/api/sessions/{id}/frame", handlers.FrameSignal(d))
}

func registerSessionEvents(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/sessions/{id}/ws", handlers.SessionEvents(d))
}
