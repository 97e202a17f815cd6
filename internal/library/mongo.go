package library

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

// MongoRepo keeps library entries in the user_library collection.
type MongoRepo struct {
	Coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{Coll: db.Collection(database.LibraryTable)}
}

func entryKey(userID, mangaID string) bson.M {
	return bson.M{"user_id": userID, "manga_id": mangaID}
}

func (r *MongoRepo) Add(ctx context.Context, entry models.LibraryEntry) (bool, error) {
	entry = withDefaults(entry)
	res, err := r.Coll.UpdateOne(ctx,
		entryKey(entry.UserID, entry.MangaID),
		bson.M{"$setOnInsert": entry},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("insert library entry: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	cur, err := r.Coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	out := make([]models.LibraryEntry, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, userID, mangaID string) (*models.LibraryEntry, error) {
	var e models.LibraryEntry
	err := r.Coll.FindOne(ctx, entryKey(userID, mangaID)).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}
	return &e, nil
}

func (r *MongoRepo) SetLastRead(ctx context.Context, userID, mangaID, chapterID string, page int) error {
	_, err := r.Coll.UpdateOne(ctx, entryKey(userID, mangaID), bson.M{
		"$set": bson.M{"last_read_chapter": chapterID, "last_read_page": page},
	})
	if err != nil {
		return fmt.Errorf("update last read: %w", err)
	}
	return nil
}

func (r *MongoRepo) Update(ctx context.Context, userID, mangaID string, patch Patch) (bool, error) {
	if patch.Empty() {
		e, err := r.Get(ctx, userID, mangaID)
		return e != nil, err
	}

	set := bson.M{}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Favorite != nil {
		set["favorite"] = *patch.Favorite
	}

	res, err := r.Coll.UpdateOne(ctx, entryKey(userID, mangaID), bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update library entry: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepo) Delete(ctx context.Context, userID, mangaID string) (bool, error) {
	res, err := r.Coll.DeleteOne(ctx, entryKey(userID, mangaID))
	if err != nil {
		return false, fmt.Errorf("delete library entry: %w", err)
	}
	return res.DeletedCount > 0, nil
}
