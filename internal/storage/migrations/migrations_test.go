package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x Int64) ENGINE = MergeTree() ORDER BY x;

-- second
CREATE TABLE b (y String) ENGINE = MergeTree() ORDER BY y;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") || !strings.HasPrefix(stmts[1], "CREATE TABLE b") {
		t.Errorf("Unexpected statements: %q", stmts)
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings(`SELECT 'a''b'; SELECT 1;`); err != nil {
		t.Errorf("Expected valid SQL, got %v", err)
	}
	if err := validateNoSemicolonInStrings(`SELECT 'a;b'`); err == nil {
		t.Error("Expected error for semicolon inside literal")
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/lotofacil")
	if err != nil {
		t.Fatalf("databaseFromDSN failed: %v", err)
	}
	if db != "lotofacil" {
		t.Errorf("Expected lotofacil, got %s", db)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("Expected error for DSN without database")
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	for _, dir := range []struct {
		fsys fs.FS
		name string
	}{{PostgresFS, "postgres"}, {ClickhouseFS, "clickhouse"}} {
		entries, err := fs.ReadDir(dir.fsys, dir.name)
		if err != nil {
			t.Fatalf("ReadDir %s failed: %v", dir.name, err)
		}
		if len(entries) == 0 {
			t.Fatalf("No embedded %s migrations", dir.name)
		}
		for _, e := range entries {
			data, err := fs.ReadFile(dir.fsys, dir.name+"/"+e.Name())
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if err := validateNoSemicolonInStrings(string(data)); err != nil {
				t.Errorf("%s/%s: %v", dir.name, e.Name(), err)
			}
		}
	}

	data, _ := fs.ReadFile(ClickhouseFS, "clickhouse/001_backtest.sql")
	if got := len(splitStatements(string(data))); got != 2 {
		t.Errorf("Expected 2 clickhouse statements, got %d", got)
	}
}
