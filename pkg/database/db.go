package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mangareader/pkg/utils"
)

// Table and collection names shared by the SQLite and MongoDB stores.
const (
	LibraryTable   = "user_library"
	ProgressTable  = "reading_progress"
	BookmarksTable = "bookmarks"
)

func EnsureDataDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Open opens the SQLite file named by cfg.Path with cfg.Driver, which is either
// "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
func Open(cfg utils.StoreConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver != "sqlite3" && driver != "sqlite" {
		return nil, fmt.Errorf("open sqlite: unsupported driver %q", driver)
	}
	if err := EnsureDataDir(cfg.Path); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open(driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// OpenAndMigrate is Open followed by Migrate.
func OpenAndMigrate(ctx context.Context, cfg utils.StoreConfig) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
