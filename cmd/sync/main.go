package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lotofacil-lab/internal/app"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	apiURL := flag.String("api-url", "", "Results API base URL (default from config)")
	skipScoring := flag.Bool("skip-scoring", false, "Do not score pending suggestions after syncing")

	flag.Parse()

	// Setup logger
	logger := app.Logger("sync")

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *apiURL != "" {
		cfg.ResultsAPIURL = *apiURL
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Print(app.Describe(err))
		cancel()
		os.Exit(app.ExitCode(err))
	}

	code := app.ExitOK
	result, err := app.NewSyncer(cfg, stores, logger).Sync(ctx)
	if err != nil {
		logger.Print(app.Describe(err))
		code = app.ExitCode(err)
	} else {
		fmt.Printf("Draws %d..%d: fetched %d, inserted %d, skipped %d\n",
			result.StoredBefore+1, result.APILatest, result.Fetched, result.Inserted, len(result.Skipped))

		if !*skipScoring {
			scored, err := app.NewScorer(stores, logger).EvaluatePending(ctx)
			if err != nil {
				logger.Print(app.Describe(err))
				code = app.ExitCode(err)
			}
			for _, s := range scored {
				fmt.Printf("Suggestion %s (user %d, draw %d): %d hits\n", s.SuggestionID, s.UserID, s.DrawID, s.Hits)
			}
		}
	}

	cleanup()
	cancel()
	os.Exit(code)
}
