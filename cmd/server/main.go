package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/pixelcart/internal/api"
	"github.com/dom/pixelcart/internal/config"
	"github.com/dom/pixelcart/internal/events"
	"github.com/dom/pixelcart/internal/logging"
	"github.com/dom/pixelcart/internal/platform/otel"
	"github.com/dom/pixelcart/internal/repository/postgres"
	"github.com/dom/pixelcart/internal/service"
	"github.com/dom/pixelcart/internal/websocket"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up tracing")
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	repos := postgres.NewRepositories(db, cfg.StoreRetryAttempts)

	bus := newBus(ctx, cfg, logger)
	services := service.NewServices(repos, bus, logger, cfg)

	if err := services.Stats.EnsureCommunityStats(ctx); err != nil {
		logger.WithError(err).Fatal("failed to initialize community stats")
	}

	hub := websocket.NewHub(services.Signaling, services.Lobby, logger)
	go hub.Run()

	go func() {
		if err := bus.Run(ctx, hub.HandleEvent); err != nil {
			logger.WithError(err).Error("event bus stopped")
		}
	}()

	sweeper := service.NewSignalSweeper(repos.Signal, cfg.SignalTTL, cfg.SignalSweepInterval, logger)
	go sweeper.Run(ctx)

	router := api.NewRouter(services, hub, logger, cfg)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	hub.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracing shutdown failed")
	}

	logger.Info("Server stopped")
}

// newBus fans events out through Redis when configured so every instance
// sees them, and in process otherwise.
func newBus(ctx context.Context, cfg *config.Config, logger *logrus.Logger) events.Bus {
	if cfg.RedisAddr == "" {
		return events.NewLocalBus(1024)
	}

	client, err := events.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	logger.WithField("addr", cfg.RedisAddr).Info("Using Redis event bus")
	return events.NewRedisBus(client, events.DefaultChannel, logger)
}
