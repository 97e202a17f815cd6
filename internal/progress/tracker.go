package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mangareader/pkg/models"
)

// LastReadSetter is the part of the library store the tracker touches.
type LastReadSetter interface {
	SetLastRead(ctx context.Context, userID, mangaID, chapterID string, page int) error
}

// Tracker records progress and mirrors it onto the library entry. The two
// writes are independent; if the second fails the first stays applied.
type Tracker struct {
	Progress Repository
	Library  LastReadSetter
}

func NewTracker(progress Repository, library LastReadSetter) *Tracker {
	return &Tracker{Progress: progress, Library: library}
}

func (t *Tracker) Update(ctx context.Context, userID, mangaID, chapterID string, page int) (models.ReadingProgress, error) {
	p := models.ReadingProgress{
		ID:         uuid.NewString(),
		UserID:     userID,
		MangaID:    mangaID,
		ChapterID:  chapterID,
		PageNumber: page,
		Timestamp:  time.Now().UTC(),
	}
	if err := t.Progress.Upsert(ctx, p); err != nil {
		return p, err
	}
	if err := t.Library.SetLastRead(ctx, userID, mangaID, chapterID, page); err != nil {
		return p, err
	}
	return p, nil
}

func (t *Tracker) Latest(ctx context.Context, userID, mangaID string) (*models.ReadingProgress, error) {
	return t.Progress.Latest(ctx, userID, mangaID)
}
