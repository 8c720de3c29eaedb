package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/handirank/handirank/config"
	"github.com/handirank/handirank/handlers"
	"github.com/handirank/handirank/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Season      *handlers.SeasonHandler
	Round       *handlers.RoundHandler
	Leaderboard *handlers.LeaderboardHandler
	Avatar      *handlers.AvatarHandler
	WebSocket   *handlers.WebSocketHandler
}

func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/auth/session", h.Auth.CreateSession)

	// Read-only boards stay public so shared leaderboard links work
	// without signing in.
	r.Get("/leaderboard", h.Leaderboard.World)
	r.Get("/seasons", h.Season.List)
	r.Get("/seasons/{code}/leaderboard", h.Leaderboard.Season)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTSecretKey))

		r.Post("/seasons", h.Season.Create)
		r.Post("/seasons/{code}/join", h.Season.Join)
		r.Get("/seasons/{code}/status", h.Season.Status)
		r.Get("/seasons/{code}/password", h.Season.Password)
		r.Delete("/seasons/{code}/participants/{name}", h.Season.RemoveParticipant)

		r.Post("/rounds", h.Round.Submit)
		r.Post("/avatars", h.Avatar.Upload)
	})

	r.Get("/ws/seasons/{code}", h.WebSocket.Subscribe)

	return r
}
