package storage

import (
	"path/filepath"
	"testing"
)

// NewTestDB opens a migrated database in a temporary directory for testing.
// This helper is exported for use in other package tests.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
