// Package csvio moves one user's library, progress and bookmarks to and from CSV files.
package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mangareader/internal/log"
	"mangareader/internal/store"
	"mangareader/pkg/models"
)

// Export writes <user>_library.csv, <user>_progress.csv and <user>_bookmarks.csv
// into outDir.
func Export(ctx context.Context, stores *store.Stores, userID, outDir string) error {
	entries, err := stores.Library.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	progress, err := stores.Progress.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	marks, err := stores.Bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	libPath := filepath.Join(outDir, userID+"_library.csv")
	progPath := filepath.Join(outDir, userID+"_progress.csv")
	bmPath := filepath.Join(outDir, userID+"_bookmarks.csv")

	if err := writeCSV(libPath, libraryRows(entries)); err != nil {
		return fmt.Errorf("export library: %w", err)
	}
	if err := writeCSV(progPath, progressRows(progress)); err != nil {
		return fmt.Errorf("export progress: %w", err)
	}
	if err := writeCSV(bmPath, bookmarkRows(marks)); err != nil {
		return fmt.Errorf("export bookmarks: %w", err)
	}

	log.Info("export finished",
		zap.String("user_id", userID),
		zap.Int("library", len(entries)),
		zap.Int("progress", len(progress)),
		zap.Int("bookmarks", len(marks)),
		zap.String("dir", outDir),
	)
	return nil
}

func libraryRows(entries []models.LibraryEntry) [][]string {
	rows := [][]string{{"id", "manga_id", "title", "cover_art", "status", "favorite", "last_read_chapter", "last_read_page", "timestamp"}}
	for _, e := range entries {
		chapter := ""
		if e.LastReadChapter != nil {
			chapter = *e.LastReadChapter
		}
		rows = append(rows, []string{
			e.ID, e.MangaID, e.Title, e.CoverArt, e.Status,
			strconv.FormatBool(e.Favorite), chapter, strconv.Itoa(e.LastReadPage),
			e.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return rows
}

func progressRows(items []models.ReadingProgress) [][]string {
	rows := [][]string{{"id", "manga_id", "chapter_id", "page_number", "timestamp"}}
	for _, p := range items {
		rows = append(rows, []string{p.ID, p.MangaID, p.ChapterID, strconv.Itoa(p.PageNumber), p.Timestamp.Format(time.RFC3339Nano)})
	}
	return rows
}

func bookmarkRows(items []models.Bookmark) [][]string {
	rows := [][]string{{"id", "manga_id", "chapter_id", "page_number", "title", "timestamp"}}
	for _, b := range items {
		rows = append(rows, []string{b.ID, b.MangaID, b.ChapterID, strconv.Itoa(b.PageNumber), b.Title, b.Timestamp.Format(time.RFC3339Nano)})
	}
	return rows
}

func writeCSV(outPath string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}
