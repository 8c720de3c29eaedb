package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/handirank/handirank/config"
	"github.com/handirank/handirank/db"
	"github.com/handirank/handirank/handlers"
	"github.com/handirank/handirank/live"
	"github.com/handirank/handirank/repositories"
	"github.com/handirank/handirank/routes"
	"github.com/handirank/handirank/services"
	"github.com/handirank/handirank/storage"
)

// electionSweepInterval matches the client-side leaderboard refresh cadence,
// so an admin handover lands within one refresh even when nobody submits.
const electionSweepInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.AvatarStorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize avatar storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("avatar storage initialized")
	} else {
		logger.Info("avatar storage not configured, uploads disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()

	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	transactor := repositories.NewSQLTransactor(dbConn)

	mailer := services.NewEmailService(cfg)
	authService := services.NewAuthService(cfg.JWTSecretKey)
	seasonService := services.NewSeasonService(seasonRepo, roundRepo, transactor, cfg.SeasonKey, hub, mailer, logger)
	roundService := services.NewRoundService(roundRepo, seasonService, hub, logger)
	leaderboardService := services.NewLeaderboardService(roundRepo, seasonRepo)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(electionSweepInterval)
		defer ticker.Stop()
		logger.Info("admin election sweep started", slog.Duration("interval", electionSweepInterval))

		if err := seasonService.RunElectionSweep(sweepCtx); err != nil {
			logger.Error("election sweep: initial run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if err := seasonService.RunElectionSweep(sweepCtx); err != nil {
					logger.Error("election sweep: periodic run failed", slog.Any("error", err))
				}
			}
		}
	}()

	router := routes.NewRouter(cfg, routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Season:      handlers.NewSeasonHandler(seasonService),
		Round:       handlers.NewRoundHandler(roundService),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService),
		Avatar:      handlers.NewAvatarHandler(uploader),
		WebSocket:   handlers.NewWebSocketHandler(hub, seasonService, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopSweep()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			_ = server.Close()
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
