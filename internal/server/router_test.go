package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"mangareader/internal/catalog"
	"mangareader/internal/store"
	"mangareader/internal/sync"
	"mangareader/pkg/utils"
)

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, origins []string) (*gin.Engine, *store.Stores) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := http.NewServeMux()
	upstream.HandleFunc("/manga", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"m1","attributes":{"title":{"en":"Frieren"},"status":"ongoing","tags":[]},"relationships":[]}]}`))
	})
	upstream.HandleFunc("/manga/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	stores, err := store.Open(context.Background(), utils.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = stores.Close(context.Background()) })

	r := NewRouter(Deps{
		HTTP:      utils.HTTPConfig{BasePath: "/api", CORSOrigins: origins},
		Catalog:   catalog.NewClient(utils.CatalogConfig{BaseURL: up.URL}),
		Library:   stores.Library,
		Tracker:   stores.Tracker(),
		Bookmarks: stores.Bookmarks,
		Store:     stores,
		Hub:       sync.NewHub(),
	})
	return r, stores
}

func request(r http.Handler, method, target string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRootHealthAndReady(t *testing.T) {
	r, _ := newTestRouter(t, []string{"*"})

	w, body := request(r, http.MethodGet, "/api/", nil)
	if w.Code != http.StatusOK || body["message"] != "Manga Reader API" {
		t.Fatalf("root: %d %v", w.Code, body)
	}
	w, body = request(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", w.Code, body)
	}
	w, body = request(r, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready: %d %v", w.Code, body)
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Deps{Store: downStore{}})

	w, body := request(r, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Fatalf("ready: %d %v", w.Code, body)
	}
}

func TestCORS(t *testing.T) {
	r, _ := newTestRouter(t, []string{"http://reader.local"})

	pre := http.Header{
		"Origin":                        {"http://reader.local"},
		"Access-Control-Request-Method": {"POST"},
	}
	w, _ := request(r, http.MethodOptions, "/api/library/add", pre)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://reader.local" {
		t.Fatalf("allow origin = %q", got)
	}

	w, _ = request(r, http.MethodGet, "/api/", http.Header{"Origin": {"http://evil.local"}})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin allowed: %q", got)
	}

	open, _ := newTestRouter(t, []string{"*"})
	w, _ = request(open, http.MethodGet, "/api/", http.Header{"Origin": {"http://anything"}})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("wildcard allow origin = %q", got)
	}
}

func TestCatalogAndStoreThroughRouter(t *testing.T) {
	r, _ := newTestRouter(t, []string{"*"})

	w, body := request(r, http.MethodGet, "/api/manga/search?query=frieren", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %v", w.Code, body)
	}
	items, _ := body["manga"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["author"] != "Unknown" {
		t.Fatalf("search body: %v", body)
	}

	w, _ = request(r, http.MethodGet, "/api/manga/gone", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("details of missing work: %d", w.Code)
	}

	request(r, http.MethodPost, "/api/library/add?user_id=u1&manga_id=m1&title=Frieren&cover_art=", nil)
	request(r, http.MethodPost, "/api/progress/update?user_id=u1&manga_id=m1&chapter_id=c1&page_number=3", nil)
	request(r, http.MethodPost, "/api/progress/update?user_id=u1&manga_id=m1&chapter_id=c1&page_number=8", nil)

	w, body = request(r, http.MethodGet, "/api/library/u1", nil)
	lib, _ := body["library"].([]any)
	if w.Code != http.StatusOK || len(lib) != 1 {
		t.Fatalf("library: %d %v", w.Code, body)
	}
	entry := lib[0].(map[string]any)
	if entry["last_read_chapter"] != "c1" || entry["last_read_page"] != float64(8) {
		t.Fatalf("library entry not patched: %v", entry)
	}
}
