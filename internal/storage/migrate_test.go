package storage

import (
	"path/filepath"
	"testing"
)

func TestOpenAutoMigrates(t *testing.T) {
	db := NewTestDB(t)

	mgr, err := NewMigrationManager(db.Conn())
	if err != nil {
		t.Fatalf("NewMigrationManager() error = %v", err)
	}

	version, dirty, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if dirty {
		t.Error("database should not be dirty after migration")
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}

	// Running migrations again is a no-op.
	if err := mgr.Up(); err != nil {
		t.Errorf("second Up() error = %v", err)
	}
}

func TestOpenWithoutAutoMigrateHasNoSchema(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "bare.db"))
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Conn().Exec(`SELECT COUNT(*) FROM decks`); err == nil {
		t.Error("decks table should not exist without migrations")
	}
}

func TestStepsDown(t *testing.T) {
	db := NewTestDB(t)

	mgr, err := NewMigrationManager(db.Conn())
	if err != nil {
		t.Fatalf("NewMigrationManager() error = %v", err)
	}

	if err := mgr.Steps(-1); err != nil {
		t.Fatalf("Steps(-1) error = %v", err)
	}

	version, _, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version after rollback = %d, want 1", version)
	}

	if _, err := db.Conn().Exec(`SELECT COUNT(*) FROM settings`); err == nil {
		t.Error("settings table should be gone after rollback")
	}
}
