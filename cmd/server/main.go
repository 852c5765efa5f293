package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetrow/internal/config"
	"github.com/JonMunkholm/sheetrow/internal/core"
	"github.com/JonMunkholm/sheetrow/internal/ingest"
	"github.com/JonMunkholm/sheetrow/internal/logging"
	"github.com/JonMunkholm/sheetrow/internal/schema"
	"github.com/JonMunkholm/sheetrow/internal/sink"
	"github.com/JonMunkholm/sheetrow/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	registry := core.NewRegistry()
	if err := loadTemplates(cfg.Templates, registry); err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}
	slog.Info("templates registered", "count", registry.Len())

	ctx := context.Background()

	var store ingest.Sink
	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = sink.New(pool, cfg.Database.Schema)
	} else {
		slog.Warn("DATABASE_URL not set; ingests will not be written")
	}

	service := ingest.New(registry, store, ingest.NewMetrics(), ingest.Config{
		MaxConcurrent: cfg.Ingest.MaxConcurrent,
		MaxWait:       cfg.Ingest.MaxWaitTime,
		Timeout:       cfg.Ingest.Timeout,
		BatchSize:     cfg.Ingest.BatchSize,
		Workers:       cfg.Ingest.Workers,
		MaxFailures:   cfg.Ingest.MaxFailures,
		Retention:     cfg.Ingest.Retention,
	})

	server := web.NewServer(cfg, registry, service)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for ingests to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown did not complete in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// loadTemplates registers the built-in templates and every template file in
// the configured directory.
func loadTemplates(cfg config.TemplatesConfig, registry *core.Registry) error {
	if cfg.Builtins {
		if err := schema.RegisterBuiltins(registry); err != nil {
			return err
		}
	}
	if cfg.Dir == "" {
		return nil
	}
	n, err := schema.LoadDir(cfg.Dir, registry)
	slog.Info("template files loaded", "dir", cfg.Dir, "count", n)
	return err
}

// connect opens and pings a connection pool.
func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"), "schema", cfg.Schema)
	}
	return pool, nil
}
