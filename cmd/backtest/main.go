package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"lotofacil-lab/internal/app"
	"lotofacil-lab/internal/backtest"
	"lotofacil-lab/internal/config"
	"lotofacil-lab/internal/reporting"
	"lotofacil-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Config file (default $CONFIG_PATH or config.yaml)")
	horizon := flag.Int("horizon", 0, "Number of most recent draws to evaluate (default from config)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	persistResult := flag.Bool("persist", false, "Persist the run to the backtest store")
	reportDir := flag.String("report-dir", "", "Write Markdown and CSV reports to this directory")
	verifyRun := flag.String("verify", "", "Replay a stored run by ID instead of running a new backtest")
	verbose := flag.Bool("verbose", false, "Log every iteration")

	flag.Parse()

	// Setup logger
	logger := app.Logger("backtest")

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *horizon == 0 {
		*horizon = cfg.BacktestHorizon
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	code := run(ctx, cfg, options{
		horizon:   *horizon,
		json:      *outputJSON,
		persist:   *persistResult,
		reportDir: *reportDir,
		verifyRun: *verifyRun,
		verbose:   *verbose,
	}, logger)
	cancel()
	os.Exit(code)
}

type options struct {
	horizon   int
	json      bool
	persist   bool
	reportDir string
	verifyRun string
	verbose   bool
}

func run(ctx context.Context, cfg config.Config, opts options, logger *log.Logger) int {
	stores, cleanup, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}
	defer cleanup()

	if opts.verifyRun != "" {
		return verify(ctx, cfg, stores, opts.verifyRun, logger)
	}

	if opts.persist && stores.Backtests == nil {
		logger.Print("--persist needs a backtest store (set clickhouse_dsn or use the memory driver)")
		return app.ExitFailure
	}
	if !opts.persist {
		stores.Backtests = nil
	}

	engineLogger := logger
	if !opts.verbose {
		engineLogger = nil
	}
	runner := app.NewBacktestRunner(cfg, stores, nil, engineLogger)

	logger.Printf("Running walk-forward backtest over the last %d draws", opts.horizon)
	result, err := runner.Run(ctx, opts.horizon)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}

	report := reporting.NewGenerator(nil).FromRun(result.ToRun())
	if opts.reportDir != "" {
		if err := writeReports(opts.reportDir, report); err != nil {
			logger.Printf("write reports: %v", err)
			return app.ExitFailure
		}
		logger.Printf("Reports written to %s/", opts.reportDir)
	}

	if opts.json {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printResult(result)
	}
	return app.ExitOK
}

func verify(ctx context.Context, cfg config.Config, stores *app.Stores, runID string, logger *log.Logger) int {
	if stores.Backtests == nil {
		logger.Print("--verify needs a backtest store (set clickhouse_dsn)")
		return app.ExitFailure
	}
	verifier := verification.NewReplayVerifier(stores.Backtests, stores.Draws, cfg.Train())
	report, err := verifier.VerifyRun(ctx, runID)
	if err != nil {
		logger.Print(app.Describe(err))
		return app.ExitCode(err)
	}

	fmt.Printf("Run %s: %d iterations, %d matched, %d divergent\n",
		report.RunID, report.TotalIterations, report.MatchedIterations, report.DivergentIterations)
	for _, r := range report.Results {
		for _, d := range r.Divergences {
			fmt.Printf("  draw %d: %s\n", r.DrawID, d)
		}
	}
	if report.DivergentIterations > 0 {
		return app.ExitFailure
	}
	return app.ExitOK
}

func writeReports(dir string, report *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		"BACKTEST_REPORT.md": reporting.RenderMarkdown(report),
		"hit_histogram.csv":  reporting.RenderCSV(report.Histogram),
		"backtest_draws.csv": reporting.RenderIterationsCSV(report.Iterations),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// printResult outputs a human-readable histogram.
func printResult(r *backtest.Result) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:             %s\n", r.RunID)
	fmt.Printf("Draws Tested:       %d\n", r.Tested())
	fmt.Printf("Best Score:         %d\n", r.Best())
	fmt.Printf("Mean Hits:          %.2f\n", r.Mean())
	fmt.Println()

	fmt.Println("Hits Histogram:")
	for _, bin := range r.Histogram {
		fmt.Printf("  %2d hits:          %d\n", bin.Hits, bin.Count)
	}
}
