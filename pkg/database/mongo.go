package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mangareader/pkg/utils"
)

// OpenMongo connects to cfg.MongoURI and returns the client together with
// the database named by cfg.MongoDatabase. The caller disconnects the client.
func OpenMongo(ctx context.Context, cfg utils.StoreConfig) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(cfg.MongoDatabase), nil
}

// EnsureMongoIndexes creates the unique keys the stores rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{LibraryTable, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "manga_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{ProgressTable, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "manga_id", Value: 1}, {Key: "chapter_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{ProgressTable, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "manga_id", Value: 1}, {Key: "timestamp", Value: -1}},
		}},
		{BookmarksTable, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		}},
	}
	for _, s := range specs {
		if _, err := db.Collection(s.coll).Indexes().CreateOne(ctx, s.model); err != nil {
			return fmt.Errorf("create index on %s: %w", s.coll, err)
		}
	}
	return nil
}
