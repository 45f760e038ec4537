// Package router wires handlers and middleware into the HTTP API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/handlers"
	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/metrics"
	"github.com/pocketpet/api/internal/middleware"
	"github.com/pocketpet/api/internal/service"
)

// Deps are the collaborators the router needs. RateLimiter and Health are optional.
type Deps struct {
	Accounts    *service.Accounts
	Pets        *service.Pets
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Health      map[string]handlers.Pinger
	Log         logrus.FieldLogger
}

// New builds the API router
func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Accounts)
	petHandler := handlers.NewPetHandler(d.Pets)
	leaderboardHandler := handlers.NewLeaderboardHandler(d.Pets)
	healthHandler := handlers.NewHealthHandler(d.Health)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logging.Component(d.Log, "http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/health", healthHandler.Health)
	r.Get("/pet/types", handlers.GetPetTypes)
	r.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handler)
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.RefreshToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Accounts))
		r.Post("/logout", authHandler.Logout)
		r.Get("/pet", petHandler.GetPet)
		r.Post("/pet", petHandler.CreatePet)
		r.Put("/pet/interact", petHandler.Interact)
		r.Get("/leaderboard/me", leaderboardHandler.GetMyStanding)
	})

	return r
}
