package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MANGAREADER"

// Config is decoded by viper, so fields carry mapstructure tags rather than json tags.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Store   StoreConfig   `mapstructure:"store"`
	Sync    SyncConfig    `mapstructure:"sync"`
	GRPC    GrpcConfig    `mapstructure:"grpc"`
	Log     LogConfig     `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	BasePath    string   `mapstructure:"base_path"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// ReleaseMode switches gin out of debug mode
	ReleaseMode bool `mapstructure:"release_mode"`
}

type CatalogConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	CoverBaseURL string `mapstructure:"cover_base_url"`
	// Timeout of zero leaves the transport defaults in charge
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type StoreConfig struct {
	// Driver is one of "sqlite3" (cgo), "sqlite" (pure Go) or "mongo"
	Driver        string `mapstructure:"driver"`
	Path          string `mapstructure:"path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type SyncConfig struct {
	// TCPAddr is left empty to disable the raw TCP event feed
	TCPAddr string `mapstructure:"tcp_addr"`
	// UDPAddr is left empty to disable per-user UDP delivery
	UDPAddr string `mapstructure:"udp_addr"`
}

type GrpcConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".mangareader", "data.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.base_path", "/api")
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.release_mode", false)

	v.SetDefault("catalog.base_url", "https://api.mangadex.org")
	v.SetDefault("catalog.cover_base_url", "https://uploads.mangadex.org/covers")
	v.SetDefault("catalog.timeout", time.Duration(0))
	v.SetDefault("catalog.user_agent", "mangareader/1.0")

	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.path", defaultDBPath())
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "mangareader")

	v.SetDefault("sync.tcp_addr", ":7070")
	v.SetDefault("sync.udp_addr", ":7071")
	v.SetDefault("grpc.addr", ":9090")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}

// LoadConfig resolves defaults, then the optional config file, then
// MANGAREADER_* environment variables (e.g. MANGAREADER_STORE_DRIVER).
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, errors.Wrapf(err, "unable to access config file %s", file)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.HTTP.BasePath = normalizeBasePath(cfg.HTTP.BasePath)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite3", "sqlite":
		if c.Store.Path == "" {
			return errors.New("store.path is required for sqlite drivers")
		}
	case "mongo":
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("store.mongo_uri and store.mongo_database are required for mongo")
		}
	default:
		return errors.Errorf("unsupported store.driver %q", c.Store.Driver)
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is required")
	}
	return nil
}

// normalizeBasePath turns "api/", "/api/" and "/api" into "/api"; "" and "/" mean root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
