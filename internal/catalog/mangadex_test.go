package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

const searchBody = `{
  "result": "ok",
  "data": [
    {
      "id": "m1",
      "type": "manga",
      "attributes": {
        "title": {"en": "Frieren"},
        "description": {"en": "After the party", "ja": "..."},
        "status": "ongoing",
        "tags": [
          {"attributes": {"name": {"en": "Fantasy"}}},
          {"attributes": {"name": {"en": "Adventure"}}}
        ]
      },
      "relationships": [
        {"id": "a1", "type": "author", "attributes": {"name": "Kanehito Yamada"}},
        {"id": "a2", "type": "author", "attributes": {"name": "Second Author"}},
        {"id": "c1", "type": "cover_art", "attributes": {"fileName": "front.jpg"}},
        {"id": "c2", "type": "cover_art", "attributes": {"fileName": "back.jpg"}}
      ]
    },
    {
      "id": "m2",
      "type": "manga",
      "attributes": {
        "title": {"ja-ro": "Sousou no Frieren", "ja": "葬送のフリーレン"},
        "description": [],
        "status": "completed",
        "tags": []
      },
      "relationships": []
    },
    {
      "id": "m3",
      "type": "manga",
      "attributes": {
        "title": {"en": "No Name"},
        "description": {"fr": "Rien"},
        "status": "hiatus",
        "tags": [{"attributes": {"name": {"en": "Drama"}}}]
      },
      "relationships": [{"id": "a3", "type": "author"}]
    }
  ]
}`

const feedBody = `{
  "result": "ok",
  "data": [
    {"id": "ch1", "attributes": {"title": "", "chapter": "5", "pages": 18, "volume": "1", "publishAt": "2018-03-19T02:08:06Z"}},
    {"id": "ch2", "attributes": {"title": "Departure", "chapter": "5.5", "pages": "20", "volume": null, "publishAt": null}},
    {"id": "ch3", "attributes": {"title": null, "chapter": null, "pages": null, "volume": null, "publishAt": "2021-01-02T03:04:05+00:00"}}
  ]
}`

func newFakeCatalog(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(utils.CatalogConfig{
		BaseURL:      srv.URL,
		CoverBaseURL: "https://covers.test/covers",
		UserAgent:    "mangareader-test",
	})
}

func TestSearchNormalizesRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("title") != "frieren" {
			t.Errorf("title param = %q", q.Get("title"))
		}
		if q.Get("limit") != "7" {
			t.Errorf("limit param = %q", q.Get("limit"))
		}
		if got := q["includes[]"]; len(got) != 2 || got[0] != "cover_art" || got[1] != "author" {
			t.Errorf("includes[] = %v", got)
		}
		if ua := r.Header.Get("User-Agent"); ua != "mangareader-test" {
			t.Errorf("user agent = %q", ua)
		}
		w.Write([]byte(searchBody))
	})
	c := newFakeCatalog(t, mux)

	works, err := c.Search(context.Background(), "frieren", 7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(works) != 3 {
		t.Fatalf("expected 3 works, got %d", len(works))
	}

	first := works[0]
	if first.Title != "Frieren" || first.Description != "After the party" {
		t.Errorf("unexpected title/description: %+v", first)
	}
	if first.Author != "Kanehito Yamada" {
		t.Errorf("author = %q, want first author relation", first.Author)
	}
	if first.CoverArt != "https://covers.test/covers/m1/front.jpg.256.jpg" {
		t.Errorf("cover = %q", first.CoverArt)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "Fantasy" || first.Tags[1] != "Adventure" {
		t.Errorf("tags = %v", first.Tags)
	}
	if first.Chapters != 0 || first.Source != models.SourceMangaDex || first.Status != "ongoing" {
		t.Errorf("unexpected constants: %+v", first)
	}

	second := works[1]
	if second.Title != "Sousou no Frieren" {
		t.Errorf("fallback title = %q, want first localized value", second.Title)
	}
	if second.Description != "" || second.CoverArt != "" {
		t.Errorf("expected empty description and cover: %+v", second)
	}
	if second.Author != models.UnknownAuthor {
		t.Errorf("author = %q, want %q", second.Author, models.UnknownAuthor)
	}
	if second.Tags == nil || len(second.Tags) != 0 {
		t.Errorf("tags = %#v, want empty slice", second.Tags)
	}

	third := works[2]
	if third.Author != models.UnknownAuthor {
		t.Errorf("author without name = %q", third.Author)
	}
	if third.Description != "" {
		t.Errorf("non-English description leaked: %q", third.Description)
	}
}

func TestSearchUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"result":"error"}`, http.StatusServiceUnavailable)
	})
	c := newFakeCatalog(t, mux)

	_, err := c.Search(context.Background(), "x", 20)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSearchRejectsRecordWithoutTitle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"m1","attributes":{"title":{},"status":"ongoing","tags":[]}}]}`))
	})
	c := newFakeCatalog(t, mux)

	_, err := c.Search(context.Background(), "x", 20)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga/m1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok","data":{"id":"m1","attributes":{"title":{"en":"Frieren"},"description":{"en":"d"},"status":"ongoing","tags":[]},
			"relationships":[{"type":"cover_art","attributes":{"fileName":"f.png"}}]}}`))
	})
	mux.HandleFunc("/manga/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	c := newFakeCatalog(t, mux)

	w, err := c.Details(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if w.ID != "m1" || w.Title != "Frieren" || w.Author != models.UnknownAuthor {
		t.Errorf("unexpected work: %+v", w)
	}
	if w.CoverArt != "https://covers.test/covers/m1/f.png.256.jpg" {
		t.Errorf("cover = %q", w.CoverArt)
	}

	_, err = c.Details(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChapters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga/m1/feed", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("order[chapter]") != "asc" || q.Get("translatedLanguage[]") != "en" || q.Get("limit") != "100" {
			t.Errorf("unexpected feed query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(feedBody))
	})
	c := newFakeCatalog(t, mux)

	chapters, err := c.Chapters(context.Background(), "m1", 100)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(chapters))
	}

	ch := chapters[0]
	if ch.Title != "Chapter 5.0" {
		t.Errorf("fallback title = %q, want %q", ch.Title, "Chapter 5.0")
	}
	if ch.ChapterNumber != 5 || ch.Pages != 18 || ch.MangaID != "m1" {
		t.Errorf("unexpected chapter: %+v", ch)
	}
	if ch.Volume == nil || *ch.Volume != "1" {
		t.Errorf("volume = %v", ch.Volume)
	}
	want := time.Date(2018, 3, 19, 2, 8, 6, 0, time.UTC)
	if ch.PublishedDate == nil || !ch.PublishedDate.Equal(want) {
		t.Errorf("published = %v, want %v", ch.PublishedDate, want)
	}

	if chapters[1].Title != "Departure" || chapters[1].Pages != 20 || chapters[1].ChapterNumber != 5.5 {
		t.Errorf("unexpected chapter: %+v", chapters[1])
	}
	if chapters[1].PublishedDate != nil {
		t.Errorf("null publishAt should stay absent, got %v", chapters[1].PublishedDate)
	}

	if chapters[2].Title != "Chapter 0.0" || chapters[2].ChapterNumber != 0 || chapters[2].Pages != 0 {
		t.Errorf("unexpected defaults: %+v", chapters[2])
	}
}

func TestChaptersRejectBadNumber(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga/m1/feed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"ch1","attributes":{"title":"x","chapter":"five","pages":1}}]}`))
	})
	c := newFakeCatalog(t, mux)

	if _, err := c.Chapters(context.Background(), "m1", 10); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/at-home/server/ch1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok","baseUrl":"X","chapter":{"hash":"H","data":["a.png","b.png"]}}`))
	})
	mux.HandleFunc("/at-home/server/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := newFakeCatalog(t, mux)

	pages, err := c.Pages(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	want := []models.Page{
		{PageNumber: 1, ImageURL: "X/data/H/a.png"},
		{PageNumber: 2, ImageURL: "X/data/H/b.png"},
	}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages", len(pages))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %+v, want %+v", i, pages[i], want[i])
		}
	}

	if _, err := c.Pages(context.Background(), "gone"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(utils.CatalogConfig{BaseURL: srv.URL})

	_, err := c.Details(context.Background(), "m1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable for a dead upstream, got %v", err)
	}
}

func TestFormatChapterNumber(t *testing.T) {
	cases := map[float64]string{
		0:     "0.0",
		5:     "5.0",
		5.5:   "5.5",
		100:   "100.0",
		12.25: "12.25",
	}
	for in, want := range cases {
		if got := FormatChapterNumber(in); got != want {
			t.Errorf("FormatChapterNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"2020-05-01T10:00:00Z", "2020-05-01T10:00:00+00:00", "2020-05-01T10:00:00"} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v", in, got)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
