package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.BasePath != "/api" {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Catalog.BaseURL != "https://api.mangadex.org" || cfg.Catalog.Timeout != 0 {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Store.Driver != "sqlite3" || cfg.Store.Path == "" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSize != 20 {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mangareader.toml")
	content := `
[http]
addr = ":9000"
base_path = "v1/"
cors_origins = ["http://reader.local"]

[catalog]
timeout = "5s"

[store]
driver = "sqlite"
path = "/tmp/reader.db"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANGAREADER_LOG_LEVEL", "debug")
	t.Setenv("MANGAREADER_HTTP_ADDR", ":9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9100" {
		t.Errorf("env should override file, addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.BasePath != "/v1" {
		t.Errorf("base path = %q", cfg.HTTP.BasePath)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "http://reader.local" {
		t.Errorf("cors origins = %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Catalog.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Catalog.Timeout)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "/tmp/reader.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsBadDriver(t *testing.T) {
	t.Setenv("MANGAREADER_STORE_DRIVER", "postgres")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{"": "", "/": "", "api": "/api", "/api/": "/api", " /a/b/ ": "/a/b"}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
