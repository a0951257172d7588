package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TestMigrationsAreIdempotent verifies that running migrations multiple times doesn't cause errors
func TestMigrationsAreIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	if err := RunEmbeddedMigrations(db); err != nil {
		t.Fatalf("First migration run failed: %v", err)
	}

	appliedFirst, err := GetAppliedMigrations(db)
	if err != nil {
		t.Fatalf("Failed to get applied migrations after first run: %v", err)
	}
	if len(appliedFirst) == 0 {
		t.Fatal("No migrations were applied on first run")
	}

	// Second run must be a no-op
	if err := RunEmbeddedMigrations(db); err != nil {
		t.Fatalf("Second migration run failed (not idempotent): %v", err)
	}

	appliedSecond, err := GetAppliedMigrations(db)
	if err != nil {
		t.Fatalf("Failed to get applied migrations after second run: %v", err)
	}
	if len(appliedFirst) != len(appliedSecond) {
		t.Errorf("Migration count changed: first=%d, second=%d", len(appliedFirst), len(appliedSecond))
	}

	if err := VerifyAllMigrationsApplied(db); err != nil {
		t.Errorf("VerifyAllMigrationsApplied failed: %v", err)
	}
}

func TestMigrationsCreateStateTable(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	if err := RunEmbeddedMigrations(db); err != nil {
		t.Fatalf("Migration run failed: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO state (key, value) VALUES ('lastVisitDate', '2024-01-01')`); err != nil {
		t.Fatalf("state table not usable: %v", err)
	}

	var value string
	if err := db.QueryRow(`SELECT value FROM state WHERE key = 'lastVisitDate'`).Scan(&value); err != nil {
		t.Fatalf("state table read failed: %v", err)
	}
	if value != "2024-01-01" {
		t.Errorf("value = %q, want %q", value, "2024-01-01")
	}
}
