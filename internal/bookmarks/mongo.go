package bookmarks

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mangareader/pkg/database"
	"mangareader/pkg/models"
)

type MongoRepo struct {
	Coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{Coll: db.Collection(database.BookmarksTable)}
}

func (r *MongoRepo) Add(ctx context.Context, b models.Bookmark) (models.Bookmark, error) {
	b = withDefaults(b)
	if _, err := r.Coll.InsertOne(ctx, b); err != nil {
		return b, fmt.Errorf("insert bookmark: %w", err)
	}
	return b, nil
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string) ([]models.Bookmark, error) {
	cur, err := r.Coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	out := make([]models.Bookmark, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return out, nil
}
