package db

import (
	"path/filepath"
	"testing"
)

// setupTestDB creates a migrated database in a temporary directory and
// closes it when the test ends.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestRun inserts a run and fails the test on error.
func createTestRun(t *testing.T, db *DB, name string) *Run {
	t.Helper()
	run, err := db.CreateRun(name, "static", map[string]int{"particle_count": 100})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	return run
}
