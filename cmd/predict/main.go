package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"lotofacil-lab/internal/app"
	"lotofacil-lab/internal/config"
	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/prediction"
	"lotofacil-lab/internal/storage"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	target := flag.Int64("target", 0, "Draw to predict (default: the draw after the newest stored one)")
	userID := flag.Int64("user-id", 0, "Owner of the saved suggestion (default from config)")
	forceRetrain := flag.Bool("force-retrain", false, "Retrain every model instead of loading stored ones")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	// Saved suggestions
	list := flag.Bool("list", false, "List saved suggestions for the user and exit")
	deleteID := flag.String("delete", "", "Delete a saved suggestion by ID and exit")

	flag.Parse()

	// Setup logger
	logger := app.Logger("predict")

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *userID == 0 {
		*userID = cfg.UserID
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

	var code int
	switch {
	case *list:
		code = listSaved(ctx, cfg, *userID, *outputJSON, logger)
	case *deleteID != "":
		code = deleteSaved(ctx, cfg, *userID, *deleteID, logger)
	default:
		code = predict(ctx, cfg, prediction.Request{
			TargetDrawID: *target,
			UserID:       *userID,
			ForceRetrain: *forceRetrain,
		}, *outputJSON, logger)
	}
	cancel()
	os.Exit(code)
}

func predict(ctx context.Context, cfg config.Config, req prediction.Request, asJSON bool, logger *log.Logger) int {
	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}
	defer cleanup()

	resp, err := app.NewPredictor(cfg, stores, logger).Predict(ctx, req)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}

	if asJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(output))
		return app.ExitOK
	}

	s := resp.Suggestion
	fmt.Println()
	fmt.Println("=== Suggestion ===")
	fmt.Printf("Draw:               %d\n", s.DrawID)
	fmt.Printf("Numbers:            %s\n", formatNumbers(s.Numbers))
	fmt.Printf("Suggestion ID:      %s\n", s.ID)
	if resp.Saved {
		fmt.Println("Saved:              yes")
	} else {
		fmt.Println("Saved:              already stored")
	}
	fmt.Println()
	fmt.Println("Ranking:")
	for i, r := range resp.Ranking {
		fmt.Printf("  %2d. %02d  p=%.4f\n", i+1, r.Number, r.Probability)
	}
	return app.ExitOK
}

func listSaved(ctx context.Context, cfg config.Config, userID int64, asJSON bool, logger *log.Logger) int {
	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}
	defer cleanup()

	saved, err := stores.Suggestions.ListByUser(ctx, userID)
	if err != nil {
		err = fmt.Errorf("%w: list suggestions: %w", storage.ErrUnavailable, err)
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}

	if asJSON {
		output, _ := json.MarshalIndent(saved, "", "  ")
		fmt.Println(string(output))
		return app.ExitOK
	}
	if len(saved) == 0 {
		fmt.Printf("No saved suggestions for user %d\n", userID)
		return app.ExitOK
	}
	for _, s := range saved {
		fmt.Printf("%s  draw %d  %s  %s\n", s.ID, s.DrawID, formatNumbers(s.Numbers), status(s))
	}
	return app.ExitOK
}

func deleteSaved(ctx context.Context, cfg config.Config, userID int64, id string, logger *log.Logger) int {
	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}
	defer cleanup()

	err = stores.Suggestions.Delete(ctx, userID, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Printf("suggestion %s not found for user %d", id, userID)
		return app.ExitFailure
	case err != nil:
		err = fmt.Errorf("%w: delete suggestion: %w", storage.ErrUnavailable, err)
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}
	fmt.Printf("Deleted %s\n", id)
	return app.ExitOK
}

func status(s *domain.Suggestion) string {
	if s.Pending() {
		return "pending"
	}
	return fmt.Sprintf("%d hits", *s.Hits)
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}
