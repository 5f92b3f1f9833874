package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/ritmaker/config"
	"github.com/alejandrodnm/ritmaker/internal/adapters/metrics"
	"github.com/alejandrodnm/ritmaker/internal/adapters/notify"
	"github.com/alejandrodnm/ritmaker/internal/adapters/storage"
	"github.com/alejandrodnm/ritmaker/internal/application/engine"
	"github.com/alejandrodnm/ritmaker/internal/ports"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := os.Getenv("RIT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", configPath)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	slog.Info("ritmaker starting",
		"config", configPath,
		"mode", cfg.Mode,
		"variant", cfg.Strategy.Variant,
		"tickers", cfg.Strategy.Tickers,
		"interval", cfg.SleepInterval(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	market, gateway := newExchange(cfg)

	var (
		store   *storage.SQLiteJournal
		journal ports.Journal
	)
	if !cfg.Storage.Disabled {
		store, err = storage.NewSQLiteJournal(cfg.Storage.DSN, cfg.Strategy.Variant)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		journal = store
		slog.Info("journal opened", "dsn", cfg.Storage.DSN, "run_id", store.RunID())
	}

	console := notify.NewConsole(cfg.Log.Format == "json")
	reporters := []ports.Reporter{console}
	if cfg.Metrics.Addr != "" {
		rec := metrics.NewRecorder()
		rec.Serve(ctx, cfg.Metrics.Addr)
		reporters = append(reporters, rec)
		slog.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	eng := engine.New(market, gateway, journal, engineConfig(cfg), reporters...)
	runErr := eng.Run(ctx)

	if store != nil {
		summary, err := store.Summary(context.Background())
		if err != nil {
			slog.Warn("failed to build run summary", "err", err)
		} else {
			console.PrintSummary(summary)
		}
		if err := store.Close(); err != nil {
			slog.Warn("failed to close journal", "err", err)
		}
	}

	if runErr != nil {
		slog.Error("engine exited with error", "err", runErr)
		os.Exit(1)
	}
	slog.Info("ritmaker stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
