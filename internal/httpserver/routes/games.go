package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/arcade/internal/httpserver/deps"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/arcade/internal/httpserver/mw"
)

func init() { Register(registerGames) }

func registerGames(r chi.Router, d deps.Deps) {
	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	api.Get("/api/games", handlers.ListGames(d))
	api.Get("/api/games/featured", handlers.FeaturedGames(d))
	api.Get("/api/games/search", handlers.SearchGames(d))
	api.Get("/api/games/{id}", handlers.GetGame(d))
	api.Get("/api/categories", handlers.Categories(d))
}
