package app

import (
	"errors"
	"log"
	"os"

	"lotofacil-lab/internal/backtest"
	"lotofacil-lab/internal/config"
	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/ingestion"
	"lotofacil-lab/internal/model"
	"lotofacil-lab/internal/prediction"
	"lotofacil-lab/internal/scoring"
	"lotofacil-lab/internal/storage"
)

// Exit codes shared by the commands.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInsufficient = 2
	ExitStorage      = 3
)

// Logger returns a stderr logger with a bracketed component prefix.
func Logger(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags)
}

// NewPredictor wires the live prediction path.
func NewPredictor(cfg config.Config, stores *Stores, logger *log.Logger) *prediction.Predictor {
	bank := model.NewBank(stores.Artifacts, model.BankOptions{Train: cfg.Train(), Logger: logger})
	return prediction.NewPredictor(stores.Draws, stores.Suggestions, bank, prediction.Options{
		MinHistory: cfg.MinHistory,
		Logger:     logger,
	})
}

// NewBacktestRunner wires the walk-forward engine and its optional store.
func NewBacktestRunner(cfg config.Config, stores *Stores, observer backtest.Observer, logger *log.Logger) *backtest.Runner {
	engine := backtest.NewEngine(stores.Draws, backtest.Options{
		Train:      cfg.Train(),
		MinHistory: cfg.MinHistory,
		Logger:     logger,
		Observer:   observer,
	})
	return backtest.NewRunner(engine, stores.Backtests, logger)
}

// NewSyncer wires the results API client to the draw store.
func NewSyncer(cfg config.Config, stores *Stores, logger *log.Logger) *ingestion.Syncer {
	client := ingestion.NewHTTPClient(cfg.ResultsAPIURL,
		ingestion.WithTimeout(cfg.SyncTimeout()),
		ingestion.WithMaxRetries(cfg.SyncMaxRetries),
	)
	return ingestion.NewSyncer(client, stores.Draws, ingestion.SyncerOptions{
		RequestDelay: cfg.RequestDelay(),
		Logger:       logger,
	})
}

// NewScorer wires suggestion scoring.
func NewScorer(stores *Stores, logger *log.Logger) *scoring.Scorer {
	return scoring.NewScorer(stores.Draws, stores.Suggestions, logger)
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrInsufficientHistory):
		return ExitInsufficient
	case errors.Is(err, storage.ErrUnavailable):
		return ExitStorage
	default:
		return ExitFailure
	}
}

// Describe returns a one-line message for an error class.
func Describe(err error) string {
	switch ExitCode(err) {
	case ExitInsufficient:
		return "not enough draw history: " + err.Error()
	case ExitStorage:
		return "storage unavailable: " + err.Error()
	default:
		return err.Error()
	}
}

// LoadConfig loads .env then the YAML config at path (or CONFIG_PATH).
func LoadConfig(path string) (config.Config, error) {
	config.LoadEnvFile(".env")
	return config.Load(config.Path(path))
}
