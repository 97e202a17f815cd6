package store

import (
	"context"
	"path/filepath"
	"testing"

	"mangareader/internal/library"
	"mangareader/pkg/utils"
)

func TestOpenSQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := utils.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "data.db")}

	if err := Migrate(ctx, cfg); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := s.Library.Add(ctx, library.NewEntry("u1", "m1", "A", "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Tracker().Update(ctx, "u1", "m1", "c1", 8); err != nil {
		t.Fatalf("Tracker.Update: %v", err)
	}
	e, err := s.Library.Get(ctx, "u1", "m1")
	if err != nil || e == nil || e.LastReadPage != 8 {
		t.Fatalf("Get = %+v, %v", e, err)
	}

	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Ping(ctx); err == nil {
		t.Fatal("Ping after Close should fail")
	}
}
