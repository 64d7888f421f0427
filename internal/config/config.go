// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends for the starred set.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken  string
	GitHubAPIURL string
	ListenAddr   string
	Store        string
	DBPath       string
	StorePath    string
	StaleTime    time.Duration
	GCTime       time.Duration
	FetchTimeout time.Duration
	LogLevel     slog.Level
}

// HasGitHubToken returns true when a personal access token is configured.
// Requests are sent unauthenticated otherwise, with the lower search quota.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence over it.
// All variables are optional: TRENDPANEL_GITHUB_TOKEN, TRENDPANEL_GITHUB_API_URL,
// TRENDPANEL_LISTEN_ADDR (127.0.0.1:8080), TRENDPANEL_STORE (sqlite),
// TRENDPANEL_DB_PATH (trendpanel.db), TRENDPANEL_STORE_PATH (trendpanel-store.json),
// TRENDPANEL_STALE_TIME (5m), TRENDPANEL_GC_TIME (10m),
// TRENDPANEL_FETCH_TIMEOUT (15s, 0 disables), TRENDPANEL_LOG_LEVEL (info).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		GitHubToken:  os.Getenv("TRENDPANEL_GITHUB_TOKEN"),
		GitHubAPIURL: os.Getenv("TRENDPANEL_GITHUB_API_URL"),
		ListenAddr:   "127.0.0.1:8080",
		Store:        StoreSQLite,
		DBPath:       "trendpanel.db",
		StorePath:    "trendpanel-store.json",
		StaleTime:    5 * time.Minute,
		GCTime:       10 * time.Minute,
		FetchTimeout: 15 * time.Second,
		LogLevel:     slog.LevelInfo,
	}

	if v, ok := os.LookupEnv("TRENDPANEL_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}

	if v, ok := os.LookupEnv("TRENDPANEL_STORE"); ok {
		store := strings.ToLower(strings.TrimSpace(v))
		if store != StoreSQLite && store != StoreFile {
			return nil, fmt.Errorf("TRENDPANEL_STORE must be %q or %q, got %q", StoreSQLite, StoreFile, v)
		}
		cfg.Store = store
	}

	if v, ok := os.LookupEnv("TRENDPANEL_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("TRENDPANEL_STORE_PATH"); ok {
		cfg.StorePath = v
	}

	var err error
	if cfg.StaleTime, err = durationEnv("TRENDPANEL_STALE_TIME", cfg.StaleTime); err != nil {
		return nil, err
	}
	if cfg.GCTime, err = durationEnv("TRENDPANEL_GC_TIME", cfg.GCTime); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationEnv("TRENDPANEL_FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return nil, err
	}

	if cfg.GCTime < cfg.StaleTime {
		return nil, fmt.Errorf("TRENDPANEL_GC_TIME (%s) must not be shorter than TRENDPANEL_STALE_TIME (%s)", cfg.GCTime, cfg.StaleTime)
	}

	if v, ok := os.LookupEnv("TRENDPANEL_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("TRENDPANEL_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}

	return parsed, nil
}
