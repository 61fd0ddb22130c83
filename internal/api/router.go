package api

import (
	"net/http"

	"github.com/dom/pixelcart/internal/api/handlers"
	"github.com/dom/pixelcart/internal/api/middleware"
	"github.com/dom/pixelcart/internal/config"
	"github.com/dom/pixelcart/internal/service"
	"github.com/dom/pixelcart/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(services *service.Services, hub *websocket.Hub, logger *logrus.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth, logger)
	cartHandler := handlers.NewCartHandler(services.Cart, logger)
	lobbyHandler := handlers.NewLobbyHandler(services.Lobby, logger)
	gameHandler := handlers.NewGameHandler(services.Match, services.Signaling, logger)
	statsHandler := handlers.NewStatsHandler(services.Stats, logger)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth, logger)

	requireAuth := middleware.Auth(services.Auth, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Get("/stats", statsHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/carts", func(r chi.Router) {
				r.Post("/", cartHandler.Create)
				r.Get("/{id}", cartHandler.Get)
				r.Put("/{id}", cartHandler.Update)
				r.Post("/{id}/fork", cartHandler.Fork)
				r.Get("/{id}/leaderboard", cartHandler.Leaderboard)
			})

			r.Route("/lobbies", func(r chi.Router) {
				r.Get("/", lobbyHandler.List)
				r.Post("/", lobbyHandler.Create)
				r.Get("/{id}", lobbyHandler.Get)
				r.Post("/{id}/join", lobbyHandler.Join)
				r.Post("/{id}/leave", lobbyHandler.Leave)
				r.Post("/{id}/ready", lobbyHandler.SetReady)
				r.Post("/{id}/start", lobbyHandler.Start)
			})

			r.Route("/games", func(r chi.Router) {
				r.Get("/{id}", gameHandler.Get)
				r.Post("/{id}/running", gameHandler.ReportRunning)
				r.Post("/{id}/result", gameHandler.SaveResult)
				r.Get("/{id}/result", gameHandler.GetResult)
				r.Post("/{id}/signals", gameHandler.SendSignal)
				r.Get("/{id}/signals", gameHandler.GetSignals)
			})
		})

		r.Get("/ws", wsHandler.Handle)
	})

	if cfg.OTelEndpoint == "" {
		return r
	}
	return otelhttp.NewHandler(r, cfg.ServiceName)
}
