package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/MikeSquared-Agency/rostrum/internal/api"
	"github.com/MikeSquared-Agency/rostrum/internal/coach"
	"github.com/MikeSquared-Agency/rostrum/internal/config"
	"github.com/MikeSquared-Agency/rostrum/internal/detect"
	"github.com/MikeSquared-Agency/rostrum/internal/ingest"
	"github.com/MikeSquared-Agency/rostrum/internal/observe"
	"github.com/MikeSquared-Agency/rostrum/internal/pattern"
	"github.com/MikeSquared-Agency/rostrum/internal/reconcile"
	"github.com/MikeSquared-Agency/rostrum/internal/session"
	"github.com/MikeSquared-Agency/rostrum/internal/store"
	"github.com/MikeSquared-Agency/rostrum/internal/transport"
)

const version = "0.3.0"

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("rostrum starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	shutdownMetrics, err := observe.InitProvider(ctx, "rostrum", version)
	if err != nil {
		slog.Error("failed to init metrics provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Pattern library
	lib := pattern.Default()
	if cfg.PatternFile != "" {
		lib, err = pattern.LoadFile(cfg.PatternFile)
		if err != nil {
			slog.Error("failed to load pattern file", "path", cfg.PatternFile, "error", err)
			os.Exit(1)
		}
		slog.Info("pattern library loaded", "path", cfg.PatternFile)
	}
	dispatcher := detect.NewDispatcher(lib)

	// NATS transport
	bus, err := transport.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Coach is optional; without it every report stays pending enrichment.
	var reconciler *reconcile.Reconciler
	if cfg.CoachURL != "" {
		coachClient := coach.NewClient(cfg.CoachURL, cfg.CoachToken, cfg.CoachTimeout)
		reconciler = reconcile.New(db, coachClient, bus,
			reconcile.Config{Attempts: cfg.CoachRetries, Backoff: cfg.CoachBackoff},
			metrics, slog.Default())
		slog.Info("coach client ready", "url", cfg.CoachURL, "timeout", cfg.CoachTimeout)
	} else {
		reconciler = reconcile.New(db, coach.NewClient("", "", cfg.CoachTimeout), bus,
			reconcile.Config{Attempts: 1, Backoff: cfg.CoachBackoff},
			metrics, slog.Default())
		slog.Warn("COACH_URL not set, reports will be persisted without qualitative analysis")
	}

	// Ingestion pipeline
	registry := session.NewRegistry()
	pipe := ingest.New(ctx, registry, dispatcher, db, bus, reconciler,
		ingest.RetryConfig{Attempts: cfg.PersistRetries, Backoff: cfg.PersistBackoff},
		metrics, slog.Default())

	subscriptions := map[string]func(string, []byte){
		transport.SubjectSessionStarted: pipe.HandleSessionStarted,
		transport.SubjectUtterance:      pipe.HandleUtterance,
		transport.SubjectSessionEnded:   pipe.HandleSessionEnded,
		transport.SubjectSessionAborted: pipe.HandleSessionAborted,
	}
	for subject, handler := range subscriptions {
		if err := bus.Subscribe(subject, handler); err != nil {
			slog.Error("failed to subscribe", "subject", subject, "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, registry)
	srv.RegisterSessionRoutes(cfg.APIToken, db, reconciler)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("rostrum ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("rostrum stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
