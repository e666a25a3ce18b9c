package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/config"
	"github.com/Dosada05/beach-tennis-system/db"
	"github.com/Dosada05/beach-tennis-system/handlers"
	"github.com/Dosada05/beach-tennis-system/locks"
	"github.com/Dosada05/beach-tennis-system/rating"
	"github.com/Dosada05/beach-tennis-system/routes"
	"github.com/Dosada05/beach-tennis-system/services"
	"github.com/Dosada05/beach-tennis-system/storage"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	handlers.SetLogger(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	if err := run(cfg, logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.ApplySchema(ctx, dbConn); err != nil {
		return err
	}
	logger.Info("database connection established")

	locker, closeLocker, err := locks.Open(ctx, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	archive, err := storage.OpenReportArchive(ctx, cfg.R2, "ratings", logger)
	if err != nil {
		return err
	}

	modifier, err := rating.ModifierByName(cfg.Rating.FormatModifier)
	if err != nil {
		return err
	}

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	deps := services.Deps{
		Repos:    services.NewPostgresRepositories(dbConn),
		Tx:       db.NewTransactor(dbConn, logger),
		Locker:   locker,
		Notifier: wsHub,
		Logger:   logger,
	}
	engineOpts := rating.Options{
		KFactor:  cfg.Rating.KFactor,
		Modifier: modifier,
		Start:    rating.StartPolicy{Default: cfg.Rating.DefaultStart},
	}

	// Инициализация сервисов и обработчиков
	ratingService := services.NewRatingService(deps, engineOpts, archive)
	bracketService := services.NewBracketService(deps, cfg.SpecialParticipantID, rand.New(rand.NewSource(time.Now().UnixNano())))
	matchService := services.NewMatchService(deps)
	kingService := services.NewKingService(deps)
	roundRobinService := services.NewRoundRobinService(deps)
	standingsService := services.NewStandingsService(deps, cfg.SpecialParticipantID)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Ratings:   handlers.NewRatingHandler(ratingService),
		Brackets:  handlers.NewBracketHandler(bracketService),
		Matches:   handlers.NewMatchHandler(matchService),
		Schedules: handlers.NewScheduleHandler(kingService, roundRobinService),
		Standings: handlers.NewStandingsHandler(standingsService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
	}, cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // полный пересчет рейтингов может идти долго
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}
