package progress

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"mangareader/pkg/database"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

func openSQL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), utils.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "progress.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// openMongo returns nil unless MANGAREADER_TEST_MONGO_URI is set.
func openMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MANGAREADER_TEST_MONGO_URI")
	if uri == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := "mangareader_test_" + uuid.NewString()[:8]
	client, db, err := database.OpenMongo(ctx, utils.StoreConfig{MongoURI: uri, MongoDatabase: name})
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	if err := database.EnsureMongoIndexes(ctx, db); err != nil {
		t.Fatalf("mongo indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func forEachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, NewRepo(openSQL(t))) })
	t.Run("mongo", func(t *testing.T) {
		db := openMongo(t)
		if db == nil {
			t.Skip("MANGAREADER_TEST_MONGO_URI not set")
		}
		fn(t, NewMongoRepo(db))
	})
}

func TestUpsertReplacesPerChapter(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

		for i, page := range []int{3, 9} {
			err := repo.Upsert(ctx, models.ReadingProgress{
				UserID: "u1", MangaID: "m1", ChapterID: "c1", PageNumber: page,
				Timestamp: base.Add(time.Duration(i) * time.Second),
			})
			if err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}

		all, err := repo.ListByUser(ctx, "u1")
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected one record, got %d", len(all))
		}
		if all[0].PageNumber != 9 || !all[0].Timestamp.Equal(base.Add(time.Second)) {
			t.Errorf("record not replaced: %+v", all[0])
		}
	})
}

func TestLatestAcrossChapters(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

		writes := []models.ReadingProgress{
			{UserID: "u1", MangaID: "m1", ChapterID: "c2", PageNumber: 5, Timestamp: base.Add(2 * time.Minute)},
			{UserID: "u1", MangaID: "m1", ChapterID: "c1", PageNumber: 20, Timestamp: base},
			{UserID: "u1", MangaID: "m2", ChapterID: "x", PageNumber: 1, Timestamp: base.Add(time.Hour)},
		}
		for _, p := range writes {
			if err := repo.Upsert(ctx, p); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}

		p, err := repo.Latest(ctx, "u1", "m1")
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if p == nil || p.ChapterID != "c2" || p.PageNumber != 5 {
			t.Fatalf("Latest = %+v", p)
		}
		if _, err := uuid.Parse(p.ID); err != nil {
			t.Errorf("id %q is not a uuid", p.ID)
		}
	})
}

func TestLatestNone(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		p, err := repo.Latest(context.Background(), "u1", "unknown")
		if err != nil || p != nil {
			t.Fatalf("Latest = %+v, %v; want nil, nil", p, err)
		}
	})
}
