// Package store opens the user-state backend named in the configuration and
// hands out its repositories.
package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"mangareader/internal/bookmarks"
	"mangareader/internal/library"
	"mangareader/internal/log"
	"mangareader/internal/progress"
	"mangareader/pkg/database"
	"mangareader/pkg/utils"
)

const DriverMongo = "mongo"

// Stores is created once per process and shared by every handler.
type Stores struct {
	Library   library.Repository
	Progress  progress.Repository
	Bookmarks bookmarks.Repository

	sqlDB   *sql.DB
	mongoCl *mongo.Client
}

// Open connects to the configured backend and prepares its schema or indexes.
func Open(ctx context.Context, cfg utils.StoreConfig) (*Stores, error) {
	if cfg.Driver == DriverMongo {
		client, db, err := database.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "open mongo store")
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, errors.Wrap(err, "prepare mongo store")
		}
		log.Info("store opened", zap.String("driver", cfg.Driver), zap.String("database", cfg.MongoDatabase))
		return &Stores{
			Library:   library.NewMongoRepo(db),
			Progress:  progress.NewMongoRepo(db),
			Bookmarks: bookmarks.NewMongoRepo(db),
			mongoCl:   client,
		}, nil
	}

	db, err := database.OpenAndMigrate(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite store")
	}
	log.Info("store opened", zap.String("driver", cfg.Driver), zap.String("path", cfg.Path))
	return &Stores{
		Library:   library.NewRepo(db),
		Progress:  progress.NewRepo(db),
		Bookmarks: bookmarks.NewRepo(db),
		sqlDB:     db,
	}, nil
}

// Migrate prepares the backend without keeping it open.
func Migrate(ctx context.Context, cfg utils.StoreConfig) error {
	s, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Close(ctx)
}

func (s *Stores) Ping(ctx context.Context) error {
	switch {
	case s.sqlDB != nil:
		return s.sqlDB.PingContext(ctx)
	case s.mongoCl != nil:
		return s.mongoCl.Ping(ctx, nil)
	}
	return errors.New("store is closed")
}

// Tracker wires progress writes to the library of the same backend.
func (s *Stores) Tracker() *progress.Tracker {
	return progress.NewTracker(s.Progress, s.Library)
}

func (s *Stores) Close(ctx context.Context) error {
	var err error
	if s.sqlDB != nil {
		err = s.sqlDB.Close()
		s.sqlDB = nil
	}
	if s.mongoCl != nil {
		err = s.mongoCl.Disconnect(ctx)
		s.mongoCl = nil
	}
	return err
}
