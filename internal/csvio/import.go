package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mangareader/internal/log"
	"mangareader/internal/store"
	"mangareader/pkg/models"
)

// Counts reports what Import loaded.
type Counts struct {
	Library   int
	Skipped   int
	Progress  int
	Bookmarks int
}

// Import reads the three files export-csv writes. Missing files are
// skipped. Library rows that already exist are left untouched and bookmarks
// are always appended.
func Import(ctx context.Context, stores *store.Stores, userID, inDir string) (Counts, error) {
	var n Counts

	err := eachRow(filepath.Join(inDir, userID+"_library.csv"), func(get func(string) string) error {
		mangaID := get("manga_id")
		if mangaID == "" {
			return nil
		}
		ts, err := parseTime(get("timestamp"))
		if err != nil {
			return fmt.Errorf("parse timestamp for %s: %w", mangaID, err)
		}
		page, err := parseInt(get("last_read_page"))
		if err != nil {
			return fmt.Errorf("parse last_read_page for %s: %w", mangaID, err)
		}
		entry := models.LibraryEntry{
			ID:           get("id"),
			UserID:       userID,
			MangaID:      mangaID,
			Title:        get("title"),
			CoverArt:     get("cover_art"),
			LastReadPage: page,
			Favorite:     get("favorite") == "true",
			Status:       get("status"),
			Timestamp:    ts,
		}
		if ch := get("last_read_chapter"); ch != "" {
			entry.LastReadChapter = &ch
		}
		added, err := stores.Library.Add(ctx, entry)
		if err != nil {
			return err
		}
		if added {
			n.Library++
		} else {
			n.Skipped++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("import library: %w", err)
	}

	err = eachRow(filepath.Join(inDir, userID+"_progress.csv"), func(get func(string) string) error {
		mangaID, chapterID := get("manga_id"), get("chapter_id")
		if mangaID == "" || chapterID == "" {
			return nil
		}
		page, err := parseInt(get("page_number"))
		if err != nil {
			return fmt.Errorf("parse page_number for %s/%s: %w", mangaID, chapterID, err)
		}
		ts, err := parseTime(get("timestamp"))
		if err != nil {
			return fmt.Errorf("parse timestamp for %s/%s: %w", mangaID, chapterID, err)
		}
		if err := stores.Progress.Upsert(ctx, models.ReadingProgress{
			ID:         get("id"),
			UserID:     userID,
			MangaID:    mangaID,
			ChapterID:  chapterID,
			PageNumber: page,
			Timestamp:  ts,
		}); err != nil {
			return err
		}
		n.Progress++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("import progress: %w", err)
	}

	err = eachRow(filepath.Join(inDir, userID+"_bookmarks.csv"), func(get func(string) string) error {
		mangaID := get("manga_id")
		if mangaID == "" {
			return nil
		}
		page, err := parseInt(get("page_number"))
		if err != nil {
			return fmt.Errorf("parse page_number for %s: %w", mangaID, err)
		}
		ts, err := parseTime(get("timestamp"))
		if err != nil {
			return fmt.Errorf("parse timestamp for %s: %w", mangaID, err)
		}
		// bookmarks are append-only, so a re-import adds copies with new ids
		if _, err := stores.Bookmarks.Add(ctx, models.Bookmark{
			ID:         uuid.NewString(),
			UserID:     userID,
			MangaID:    mangaID,
			ChapterID:  get("chapter_id"),
			PageNumber: page,
			Title:      get("title"),
			Timestamp:  ts,
		}); err != nil {
			return err
		}
		n.Bookmarks++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("import bookmarks: %w", err)
	}

	log.Info("import finished",
		zap.String("user_id", userID),
		zap.Int("library", n.Library),
		zap.Int("library_skipped", n.Skipped),
		zap.Int("progress", n.Progress),
		zap.Int("bookmarks", n.Bookmarks),
		zap.String("dir", inDir),
	)
	return n, nil
}

// eachRow calls fn for every data row of the CSV at path, with a getter keyed
// by header name.
func eachRow(path string, fn func(get func(string) string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("import file missing, skipping", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(row) == 0 {
			continue
		}
		if err := fn(func(key string) string { return valueAt(header, row, key) }); err != nil {
			return err
		}
	}
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseTime returns the zero time for an empty value; the repositories stamp
// it with the current time.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
