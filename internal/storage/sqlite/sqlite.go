// Package sqlite implements the stores on a single SQLite file for
// local, single-user installs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"lotofacil-lab/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS draws (
	draw_id    INTEGER PRIMARY KEY,
	numbers    TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS suggestions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	suggestion_id TEXT NOT NULL UNIQUE,
	user_id       INTEGER NOT NULL,
	draw_id       INTEGER NOT NULL,
	strategy      TEXT NOT NULL,
	numbers       TEXT NOT NULL,
	drawn         TEXT,
	hits          INTEGER,
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_suggestions_user ON suggestions(user_id, draw_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_pending ON suggestions(hits, draw_id);

CREATE TABLE IF NOT EXISTS model_artifacts (
	number          INTEGER PRIMARY KEY,
	columns         TEXT NOT NULL,
	payload         BLOB NOT NULL,
	trained_rows    INTEGER NOT NULL,
	trained_through INTEGER NOT NULL,
	trained_at      DATETIME NOT NULL
);
`

// DB wraps the SQLite handle shared by the stores.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database file and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; avoids SQLITE_BUSY under concurrent goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &DB{DB: db}, nil
}

// encodeNumbers stores a number set as "1,2,3".
func encodeNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func decodeNumbers(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("decode numbers %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}

func observe(operation string, start time.Time, err error) {
	observability.RecordDBQuery("sqlite", operation, time.Since(start).Seconds(), err)
}
