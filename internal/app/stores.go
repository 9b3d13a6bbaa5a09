// Package app opens the configured storage backends and assembles the
// services shared by the commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log"

	"lotofacil-lab/internal/config"
	"lotofacil-lab/internal/storage"
	chstore "lotofacil-lab/internal/storage/clickhouse"
	"lotofacil-lab/internal/storage/filesystem"
	"lotofacil-lab/internal/storage/memory"
	"lotofacil-lab/internal/storage/migrations"
	pgstore "lotofacil-lab/internal/storage/postgres"
	"lotofacil-lab/internal/storage/sqlite"
)

// Stores holds every storage implementation a command may need.
type Stores struct {
	Draws       storage.DrawStore
	Suggestions storage.SuggestionStore
	Artifacts   storage.ArtifactStore
	Backtests   storage.BacktestStore // nil when no backtest backend is configured
}

// OpenStores connects the backends selected by cfg and runs migrations.
// The returned cleanup closes every connection.
func OpenStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*Stores, func(), error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &Stores{}
	switch cfg.StorageDriver {
	case config.DriverMemory:
		stores.Draws = memory.NewDrawStore()
		stores.Suggestions = memory.NewSuggestionStore()
		stores.Artifacts = memory.NewArtifactStore()
		stores.Backtests = memory.NewBacktestStore()

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: open sqlite: %w", storage.ErrUnavailable, err)
		}
		closers = append(closers, func() { db.Close() })
		stores.Draws = sqlite.NewDrawStore(db)
		stores.Suggestions = sqlite.NewSuggestionStore(db)
		stores.Artifacts = sqlite.NewArtifactStore(db)
		logger.Printf("using sqlite at %s", cfg.SQLitePath)

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: connect to postgres: %w", storage.ErrUnavailable, err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%w: postgres migrations: %w", storage.ErrUnavailable, err)
		}
		stores.Draws = pgstore.NewDrawStore(pool)
		stores.Suggestions = pgstore.NewSuggestionStore(pool)
		stores.Artifacts = pgstore.NewArtifactStore(pool)
		logger.Println("using postgres")

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.ModelDir != "" {
		artifacts, err := filesystem.NewArtifactStore(cfg.ModelDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%w: model dir: %w", storage.ErrUnavailable, err)
		}
		stores.Artifacts = artifacts
		logger.Printf("models stored in %s", cfg.ModelDir)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("%w: clickhouse: %w", storage.ErrUnavailable, err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.Backtests = chstore.NewBacktestStore(conn)
		logger.Println("backtest runs stored in clickhouse")
	}

	return stores, cleanup, nil
}
