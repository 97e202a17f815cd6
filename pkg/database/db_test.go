package database

import (
	"context"
	"path/filepath"
	"testing"

	"mangareader/pkg/utils"
)

func TestOpenAndMigrateIsIdempotent(t *testing.T) {
	cfg := utils.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "data.db")}
	ctx := context.Background()

	db, err := OpenAndMigrate(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, table := range []string{LibraryTable, ProgressTable, BookmarksTable} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(utils.StoreConfig{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
