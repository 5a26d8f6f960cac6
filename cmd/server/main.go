package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zilohq/catalog-transform/internal/config"
	"github.com/zilohq/catalog-transform/internal/engine"
	"github.com/zilohq/catalog-transform/internal/logging"
	"github.com/zilohq/catalog-transform/internal/schema"
	"github.com/zilohq/catalog-transform/internal/store"
	"github.com/zilohq/catalog-transform/internal/web"
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

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"templates_dir", cfg.Schema.TemplatesDir,
	)

	templates, err := schema.Load(cfg.Schema.TemplatesDir)
	if err != nil {
		slog.Error("failed to load template schemas", "error", err)
		os.Exit(1)
	}
	for _, t := range templates.All() {
		slog.Info("template registered", "key", t.Key, "name", t.Name, "fields", len(t.Fields))
	}

	ctx := context.Background()

	// Postgres when configured, in-process store otherwise.
	var mappingStore engine.MappingStore
	if cfg.Store.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Store.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Store.MaxConns)
		poolConfig.MinConns = int32(cfg.Store.MinConns)
		poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg, err := store.NewPostgres(ctx, pool)
		if err != nil {
			slog.Error("failed to initialize mapping store", "error", err)
			os.Exit(1)
		}
		mappingStore = pg
		slog.Info("using postgres mapping store")
	} else {
		mappingStore = store.NewMemory()
		slog.Info("no DATABASE_URL set, using in-memory mapping store")
	}

	service := engine.NewService(templates, mappingStore)
	server := web.NewServer(service, cfg)

	// Serve until interrupted, then drain in-flight requests.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Server.Addr())
		errCh <- server.Start(cfg.Server.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("server stopped")
}
