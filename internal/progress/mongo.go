package progress

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mangareader/pkg/database"
	"mangareader/pkg/models"
)

// MongoRepo keeps progress in the reading_progress collection.
type MongoRepo struct {
	Coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{Coll: db.Collection(database.ProgressTable)}
}

func (r *MongoRepo) Upsert(ctx context.Context, p models.ReadingProgress) error {
	p = withDefaults(p)
	_, err := r.Coll.ReplaceOne(ctx,
		bson.M{"user_id": p.UserID, "manga_id": p.MangaID, "chapter_id": p.ChapterID},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert reading progress: %w", err)
	}
	return nil
}

func (r *MongoRepo) Latest(ctx context.Context, userID, mangaID string) (*models.ReadingProgress, error) {
	var p models.ReadingProgress
	err := r.Coll.FindOne(ctx,
		bson.M{"user_id": userID, "manga_id": mangaID},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest progress: %w", err)
	}
	return &p, nil
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string) ([]models.ReadingProgress, error) {
	cur, err := r.Coll.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]models.ReadingProgress, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}
