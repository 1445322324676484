package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/skill-assessment/internal/api"
	"github.com/terra-clan/skill-assessment/internal/assessor"
	"github.com/terra-clan/skill-assessment/internal/catalog"
	"github.com/terra-clan/skill-assessment/internal/cleanup"
	"github.com/terra-clan/skill-assessment/internal/config"
	"github.com/terra-clan/skill-assessment/internal/recordstore"
	"github.com/terra-clan/skill-assessment/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting skill-assessment",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	// Record stores, consulted in registration order on reads. Postgres is
	// the store of record, Redis a cache in front of it.
	records := recordstore.NewRegistry()

	if cfg.Redis.Enabled {
		redisStore, err := recordstore.NewRedisStore(initCtx, recordstore.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			slog.Error("failed to create redis record store", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		records.Register("redis", redisStore)
	}

	pgStore, err := recordstore.NewPostgresStore(initCtx, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to create postgres record store", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	records.Register("postgres", pgStore)
	if err := records.SetPrimary("postgres"); err != nil {
		slog.Error("failed to set primary record store", "error", err)
		os.Exit(1)
	}

	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load quiz catalog", "dir", cfg.Catalog.Dir, "error", err)
	}

	manager := assessor.NewManager(repo, records, loader, assessor.WithFormTTL(cfg.Forms.TTL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup.NewCleaner(manager, cfg.Cleanup.Interval).Start(ctx)

	server := api.NewServer(cfg.Server, manager, loader, repo)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Stop background workers first
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("skill-assessment stopped")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
