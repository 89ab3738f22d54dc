// cmd/lensd/main.go
// Package main implements the entry point for the explorer service.
// It initializes all components and starts the HTTP server.
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

	"github.com/ArchiveLens/archivelens-explorer-go/internal/archive"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/config"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/event"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/server"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/telemetry"
	"github.com/ArchiveLens/archivelens-explorer-go/internal/watch"
)

// main is the entry point for the explorer service.
// It initializes all components, starts the HTTP server, and handles graceful shutdown.
func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	_, err = telemetry.InitTracer("lens-service", cfg.Env)
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.ShutdownTracer(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize event publisher (NATS JetStream or no-op)
	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close() // Ensure publisher is closed on exit

	// Wire the archive session and run the initialization pass
	session, err := archive.NewSession(ctx, cfg, pub)
	if err != nil {
		logger.Error("failed to wire archive session", "error", err)
		os.Exit(1)
	}
	if err := session.Initialize(ctx); err != nil {
		logger.Error("session initialization failed", "error", err)
		os.Exit(1)
	}

	// Optionally watch the archive dir; changes flag the session stale
	if cfg.WatchArchive {
		if err := watch.Start(ctx, cfg.ArchiveDir, session.MarkStale); err != nil {
			logger.Warn("archive watcher unavailable", "error", err)
		}
	}

	// Create HTTP mux with all handlers and middleware
	mux := server.NewMux(session, cfg.CORSAllowedOrigins)

	// Create HTTP server with timeout configuration
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second, // Exports over large comment sets take a while
	}

	// Start server in a separate goroutine
	go func() {
		logger.Info("server starting", "addr", addr, "env", cfg.Env, "archive_dir", cfg.ArchiveDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	// Handle graceful shutdown
	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
