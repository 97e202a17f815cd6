package progress

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mangareader/pkg/models"
)

// Repository keeps one ReadingProgress per (user, manga, chapter).
type Repository interface {
	// Upsert replaces the record for the key of p, or inserts it.
	Upsert(ctx context.Context, p models.ReadingProgress) error
	// Latest returns the most recently written record across all chapters of
	// the work, or nil, nil when there is none.
	Latest(ctx context.Context, userID, mangaID string) (*models.ReadingProgress, error)
	ListByUser(ctx context.Context, userID string) ([]models.ReadingProgress, error)
}

func withDefaults(p models.ReadingProgress) models.ReadingProgress {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	p.Timestamp = p.Timestamp.UTC()
	return p
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Upsert(ctx context.Context, p models.ReadingProgress) error {
	p = withDefaults(p)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reading_progress (id, user_id, manga_id, chapter_id, page_number, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, manga_id, chapter_id) DO UPDATE SET
			id = excluded.id,
			page_number = excluded.page_number,
			updated_at = excluded.updated_at
	`, p.ID, p.UserID, p.MangaID, p.ChapterID, p.PageNumber, p.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert reading progress: %w", err)
	}
	return nil
}

func (r *Repo) Latest(ctx context.Context, userID, mangaID string) (*models.ReadingProgress, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, manga_id, chapter_id, page_number, updated_at
		FROM reading_progress
		WHERE user_id = ? AND manga_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID, mangaID)

	p, err := scanProgress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest progress: %w", err)
	}
	return &p, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.ReadingProgress, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, manga_id, chapter_id, page_number, updated_at
		FROM reading_progress
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	out := make([]models.ReadingProgress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(s scanner) (models.ReadingProgress, error) {
	var p models.ReadingProgress
	var updated int64
	if err := s.Scan(&p.ID, &p.UserID, &p.MangaID, &p.ChapterID, &p.PageNumber, &updated); err != nil {
		return p, err
	}
	p.Timestamp = time.Unix(0, updated).UTC()
	return p, nil
}
