package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mangareader/pkg/models"
)

// Repository stores bookmarks. Every Add inserts a new record, duplicates included.
type Repository interface {
	Add(ctx context.Context, b models.Bookmark) (models.Bookmark, error)
	ListByUser(ctx context.Context, userID string) ([]models.Bookmark, error)
}

func withDefaults(b models.Bookmark) models.Bookmark {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	b.Timestamp = b.Timestamp.UTC()
	return b
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Add(ctx context.Context, b models.Bookmark) (models.Bookmark, error) {
	b = withDefaults(b)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, manga_id, chapter_id, page_number, title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.UserID, b.MangaID, b.ChapterID, b.PageNumber, b.Title, b.Timestamp.UnixNano())
	if err != nil {
		return b, fmt.Errorf("insert bookmark: %w", err)
	}
	return b, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.Bookmark, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, manga_id, chapter_id, page_number, title, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bookmark, 0)
	for rows.Next() {
		var b models.Bookmark
		var created int64
		if err := rows.Scan(&b.ID, &b.UserID, &b.MangaID, &b.ChapterID, &b.PageNumber, &b.Title, &created); err != nil {
			return nil, fmt.Errorf("scan bookmark row: %w", err)
		}
		b.Timestamp = time.Unix(0, created).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
