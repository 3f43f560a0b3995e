package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// ArchiveRoot is the directory holding the observation corpus.
	ArchiveRoot string
	// ArchiveDB is the site index database path; defaults to
	// <ArchiveRoot>/point_obs.sqlite.
	ArchiveDB string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// LoadWorkers bounds the per-site record loading pool.
	LoadWorkers int

	// Site index cache (read-through, TTL'd).
	IndexCacheSize int
	IndexCacheTTL  time.Duration
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("INDEX_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	loadWorkers, err := parseInt("LOAD_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("INDEX_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ArchiveRoot:     envOrDefault("ARCHIVE_ROOT", "/hydrodata/national_obs"),
		ArchiveDB:       os.Getenv("ARCHIVE_DB"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		LoadWorkers:     loadWorkers,
		IndexCacheSize:  cacheSize,
		IndexCacheTTL:   cacheTTL,
	}

	if cfg.ArchiveDB == "" {
		cfg.ArchiveDB = filepath.Join(cfg.ArchiveRoot, "point_obs.sqlite")
	}

	if cfg.ArchiveRoot == "" {
		return nil, errors.New("ARCHIVE_ROOT is required")
	}
	if cfg.LoadWorkers < 1 {
		return nil, errors.New("LOAD_WORKERS must be at least 1")
	}
	if cfg.IndexCacheSize < 1 {
		return nil, errors.New("INDEX_CACHE_SIZE must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
