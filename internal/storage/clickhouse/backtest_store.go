package clickhouse

import (
	"context"
	"fmt"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/storage"
)

// BacktestStore implements storage.BacktestStore using ClickHouse.
// MergeTree does not enforce keys, so uniqueness is checked before insert.
type BacktestStore struct {
	conn *Conn
}

// NewBacktestStore creates a new BacktestStore.
func NewBacktestStore(conn *Conn) *BacktestStore {
	return &BacktestStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BacktestStore = (*BacktestStore)(nil)

// InsertRun stores the run header and all iterations.
// Returns ErrDuplicateKey if run_id exists.
func (s *BacktestStore) InsertRun(ctx context.Context, run *domain.BacktestRun) (err error) {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) {
		observability.RecordDBQuery("clickhouse", "insert_run", time.Since(start).Seconds(), err)
	}(time.Now())

	exists, err := s.exists(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	// Iterations first: a run header is only visible once its rows are.
	if len(run.Iterations) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO backtest_iterations (
				run_id, draw_id, suggested, actual, hits,
				history_size, training_rows, trained_through
			)
		`)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}
		for _, it := range run.Iterations {
			err = batch.Append(
				run.RunID,
				it.DrawID,
				toUInt8(it.Suggested),
				toUInt8(it.Actual),
				uint8(it.Hits),
				uint32(it.HistorySize),
				uint32(it.TrainingRows),
				it.TrainedThrough,
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, horizon, first_draw_id, last_draw_id, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		run.RunID,
		uint32(run.Horizon),
		run.FirstDrawID,
		run.LastDrawID,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with iterations ordered by draw id ASC.
func (s *BacktestStore) GetRun(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	query := `
		SELECT run_id, horizon, first_draw_id, last_draw_id, started_at, finished_at
		FROM backtest_runs
		WHERE run_id = ?
		LIMIT 1
	`

	var run domain.BacktestRun
	var horizon uint32
	err := s.conn.QueryRow(ctx, query, runID).Scan(
		&run.RunID, &horizon, &run.FirstDrawID, &run.LastDrawID, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	run.Horizon = int(horizon)

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, draw_id, suggested, actual, hits, history_size, training_rows, trained_through
		FROM backtest_iterations
		WHERE run_id = ?
		ORDER BY draw_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	run.Iterations, err = scanIterations(rows)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// exists checks if a run with the given id exists.
func (s *BacktestStore) exists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM backtest_runs WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanIterations scans multiple rows into a slice.
func scanIterations(rows chRows) ([]*domain.BacktestIteration, error) {
	var iterations []*domain.BacktestIteration

	for rows.Next() {
		var it domain.BacktestIteration
		var suggested, actual []uint8
		var hits uint8
		var historySize, trainingRows uint32
		err := rows.Scan(
			&it.RunID, &it.DrawID, &suggested, &actual, &hits,
			&historySize, &trainingRows, &it.TrainedThrough,
		)
		if err != nil {
			return nil, fmt.Errorf("scan iteration row: %w", err)
		}
		it.Suggested = fromUInt8(suggested)
		it.Actual = fromUInt8(actual)
		it.Hits = int(hits)
		it.HistorySize = int(historySize)
		it.TrainingRows = int(trainingRows)
		iterations = append(iterations, &it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iteration rows: %w", err)
	}

	return iterations, nil
}

func toUInt8(numbers []int) []uint8 {
	out := make([]uint8, len(numbers))
	for i, n := range numbers {
		out[i] = uint8(n)
	}
	return out
}

func fromUInt8(numbers []uint8) []int {
	out := make([]int, len(numbers))
	for i, n := range numbers {
		out[i] = int(n)
	}
	return out
}
