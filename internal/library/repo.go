package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mangareader/pkg/models"
)

// Repository stores LibraryEntry records, at most one per (user, manga).
type Repository interface {
	// Add inserts entry unless the key already exists. It reports whether a
	// row was inserted.
	Add(ctx context.Context, entry models.LibraryEntry) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error)
	// Get returns nil, nil when there is no entry.
	Get(ctx context.Context, userID, mangaID string) (*models.LibraryEntry, error)
	// SetLastRead patches the last-read fields of an existing entry. A missing
	// entry is not an error.
	SetLastRead(ctx context.Context, userID, mangaID, chapterID string, page int) error
	Update(ctx context.Context, userID, mangaID string, patch Patch) (bool, error)
	Delete(ctx context.Context, userID, mangaID string) (bool, error)
}

// Patch carries the user-editable fields. Nil fields are left unchanged.
type Patch struct {
	Status   *string
	Favorite *bool
}

func (p Patch) Empty() bool { return p.Status == nil && p.Favorite == nil }

// NewEntry fills the generated fields and defaults of a new library entry.
func NewEntry(userID, mangaID, title, coverArt string) models.LibraryEntry {
	return models.LibraryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		MangaID:   mangaID,
		Title:     title,
		CoverArt:  coverArt,
		Status:    models.StatusReading,
		Timestamp: time.Now().UTC(),
	}
}

// ValidStatus reports whether s is one of the library status values.
func ValidStatus(s string) bool {
	switch s {
	case models.StatusReading, models.StatusCompleted, models.StatusOnHold, models.StatusDropped:
		return true
	}
	return false
}

func withDefaults(e models.LibraryEntry) models.LibraryEntry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.StatusReading
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.UTC()
	return e
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Add(ctx context.Context, entry models.LibraryEntry) (bool, error) {
	entry = withDefaults(entry)
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_library
			(id, user_id, manga_id, title, cover_art, last_read_chapter, last_read_page, favorite, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, manga_id) DO NOTHING
	`, entry.ID, entry.UserID, entry.MangaID, entry.Title, entry.CoverArt,
		nullString(entry.LastReadChapter), entry.LastReadPage, entry.Favorite, entry.Status,
		entry.Timestamp.UnixNano())
	if err != nil {
		return false, fmt.Errorf("insert library entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert library entry: %w", err)
	}
	return n > 0, nil
}

const selectEntry = `
	SELECT id, user_id, manga_id, title, cover_art, last_read_chapter, last_read_page, favorite, status, created_at
	FROM user_library`

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, selectEntry+`
		WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	defer rows.Close()

	out := make([]models.LibraryEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan library row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, userID, mangaID string) (*models.LibraryEntry, error) {
	row := r.DB.QueryRowContext(ctx, selectEntry+`
		WHERE user_id = ? AND manga_id = ?
	`, userID, mangaID)

	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get library entry: %w", err)
	}
	return &e, nil
}

func (r *Repo) SetLastRead(ctx context.Context, userID, mangaID, chapterID string, page int) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE user_library
		SET last_read_chapter = ?, last_read_page = ?
		WHERE user_id = ? AND manga_id = ?
	`, chapterID, page, userID, mangaID)
	if err != nil {
		return fmt.Errorf("update last read: %w", err)
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, userID, mangaID string, patch Patch) (bool, error) {
	if patch.Empty() {
		e, err := r.Get(ctx, userID, mangaID)
		return e != nil, err
	}

	var sets []string
	var args []any
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *patch.Favorite)
	}
	args = append(args, userID, mangaID)

	res, err := r.DB.ExecContext(ctx,
		`UPDATE user_library SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND manga_id = ?`,
		args...)
	if err != nil {
		return false, fmt.Errorf("update library entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Delete(ctx context.Context, userID, mangaID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM user_library
		WHERE user_id = ? AND manga_id = ?
	`, userID, mangaID)
	if err != nil {
		return false, fmt.Errorf("delete library entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.LibraryEntry, error) {
	var e models.LibraryEntry
	var chapter sql.NullString
	var created int64
	if err := s.Scan(&e.ID, &e.UserID, &e.MangaID, &e.Title, &e.CoverArt,
		&chapter, &e.LastReadPage, &e.Favorite, &e.Status, &created); err != nil {
		return e, err
	}
	if chapter.Valid {
		c := chapter.String
		e.LastReadChapter = &c
	}
	e.Timestamp = time.Unix(0, created).UTC()
	return e, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
