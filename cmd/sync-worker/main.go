package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/remote/postgrest"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting sync-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.SyncEnabled() {
		logger.Error("Sync-worker requires SUPABASE_URL, SUPABASE_KEY and SYNC_USER_ID")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	remoteStore, err := postgrest.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		logger.Error("Failed to initialize remote store", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncManager := services.NewSyncManager(repo, remoteStore, core.SystemClock{}, cfg.SyncDebounce)
	syncManager.BindUser(cfg.SyncUserID)
	syncManager.Subscribe(func(state core.SyncState) {
		logger.Info("Sync state changed", "status", string(state.Status), "error", state.Error)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reconcile both sides once on startup.
	logger.Info("Performing startup full sync...")
	startupCtx, startupCancel := context.WithTimeout(ctx, 60*time.Second)
	if _, err := syncManager.FullSync(startupCtx); err != nil {
		logger.Error("Startup full sync failed", "error", err)
		// Continue: local changes keep flowing through debounced uploads.
	}
	startupCancel()

	changes, err := amqpClient.ConsumeChanges(ctx)
	if err != nil {
		logger.Error("Failed to start consuming changes", "error", err)
		os.Exit(1)
	}

	go func() {
		for msg := range changes {
			logger.Debug("Change received",
				"collection", msg.Collection,
				"id", msg.ID,
				"op", msg.Op)
			// Deletes were already applied remotely by the producer, but a
			// fresh upload reconciles anything missed.
			syncManager.ScheduleUpload()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down sync-worker...")
	// Flush any pending upload before exiting.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := syncManager.ManualSync(flushCtx); err != nil {
		logger.Warn("Final sync flush failed", "error", err)
	}
	flushCancel()
	cancel()
	logger.Info("Sync-worker shutdown complete")
}
