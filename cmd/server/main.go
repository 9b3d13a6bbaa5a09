// Package main provides the long-running service:
// - Sync (cron): fetch newly published draws, score pending suggestions
// - HTTP: /health, /metrics, /status, /ws/backtest progress stream
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lotofacil-lab/internal/app"
)

func main() {
	// Parse flags (config file and env vars as defaults)
	configPath := flag.String("config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	addr := flag.String("addr", "", "HTTP listen address (default from config)")
	schedule := flag.String("sync-schedule", "", "Cron expression for draw sync (default from config)")
	syncOnStart := flag.Bool("sync-on-start", true, "Run a sync immediately on start")

	flag.Parse()

	// Setup logger
	logger := app.Logger("server")

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}
	if *schedule != "" {
		cfg.SyncSchedule = *schedule
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server, err := NewServer(cfg, stores, logger)
	if err != nil {
		logger.Fatalf("create server: %v", err)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx, *syncOnStart)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}
