package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"firewatch-backend/internal/alerting"
	"firewatch-backend/internal/api"
	"firewatch-backend/internal/bus"
	"firewatch-backend/internal/config"
	"firewatch-backend/internal/retention"
	"firewatch-backend/internal/storage"
	"firewatch-backend/internal/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(getenv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.NatsURL = getenv("NATS_URL", cfg.NatsURL)
	cfg.DataPath = getenv("DATA_PATH", cfg.DataPath)
	cfg.StatePath = getenv("STATE_PATH", cfg.StatePath)

	for _, path := range []string{cfg.DataPath, cfg.StatePath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			logger.Error("failed to create data directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	points, err := storage.OpenPointStore(cfg.DataPath)
	if err != nil {
		logger.Error("failed to open point store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	state, err := storage.OpenStateStore(cfg.StatePath)
	if err != nil {
		logger.Error("failed to open state store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var publisher *bus.Publisher
	if cfg.NatsURL != "" {
		publisher, err = bus.NewPublisher(cfg.NatsURL)
		if err != nil {
			logger.Error("failed to connect to nats", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
	}

	hub := stream.NewHub(logger)
	go hub.Run()

	engine := alerting.NewEngine(state, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := retention.NewSweeper(points, logger,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		time.Duration(cfg.SweepIntervalHours)*time.Hour)
	sweeper.RunOnce(time.Now())
	go sweeper.Start(sweepCtx)

	handler := &api.Handler{
		Points: points,
		State:  state,
		Engine: engine,
		Hub:    hub,
		Bus:    publisher,
		Logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		stopSweep()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("firewatch-backend listening", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("error", err.Error()))
	}
}

func getenv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
