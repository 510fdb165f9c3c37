package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/remote"
	"fintrack/internal/remote/memory"
	"fintrack/internal/remote/postgrest"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting fintrack")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Remote backend is optional; without it the tracker runs local-only.
	var remoteStore remote.Store
	if cfg.SyncEnabled() {
		remoteStore, err = postgrest.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			logger.Error("Failed to initialize remote store", "error", err)
			os.Exit(1)
		}
		logger.Info("Remote store initialized", "url", cfg.SupabaseURL)
	} else {
		remoteStore = memory.NewStore()
		logger.Info("Sync disabled - running local-only")
	}

	// AMQP is optional too; without it other processes are not notified.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change notifications", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized")
		}
	}

	clock := core.SystemClock{}
	syncManager := services.NewSyncManager(repo, remoteStore, clock, cfg.SyncDebounce)
	if cfg.SyncEnabled() {
		syncManager.BindUser(cfg.SyncUserID)
	}

	tracker := services.NewTracker(repo, syncManager, publisher, clock)
	summary := services.NewSummaryService(repo, clock, time.Minute)

	syncManager.Subscribe(func(state core.SyncState) {
		logger.Info("Sync state changed", "status", string(state.Status), "error", state.Error)
	})

	// Reconcile with the remote backend before serving.
	if cfg.SyncEnabled() {
		startupCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		if _, err := syncManager.FullSync(startupCtx); err != nil {
			logger.Warn("Startup sync failed, continuing with local data", "error", err)
		}
		cancel()
	}

	// Materialize any recurring transactions that came due while offline.
	processor := services.NewRecurringProcessor(repo, services.NewGenerationEngine(), syncManager, publisher)
	if count, err := processor.ProcessDue(context.Background(), time.Now()); err != nil {
		logger.Warn("Startup recurring processing failed", "error", err)
	} else if count > 0 {
		logger.Info("Generated recurring transactions on startup", "count", count)
	}

	srv := apphttp.NewServer(":"+cfg.Port, tracker, summary, syncManager)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "sync_enabled", cfg.SyncEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
