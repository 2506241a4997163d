// Package config loads process configuration from an optional YAML file with
// environment variable overrides. The database URL is the one hard
// requirement: without it the process refuses to start.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	ListenAddr  string        `yaml:"listen_addr"`
	DatabaseURL string        `yaml:"database_url"`
	Log         LogConfig     `yaml:"log"`
	Session     SessionConfig `yaml:"session"`
	Ratings     RatingsConfig `yaml:"ratings"`
}

// LogConfig tunes the shared logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SessionConfig selects and tunes the session backend.
type SessionConfig struct {
	Backend         string        `yaml:"backend"` // "filesystem" or "redis"
	Dir             string        `yaml:"dir"`
	CookieName      string        `yaml:"cookie_name"`
	TTL             time.Duration `yaml:"ttl"`
	RedisAddr       string        `yaml:"redis_addr"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`
}

// RatingsConfig points at the external ratings service.
type RatingsConfig struct {
	Endpoint string `yaml:"endpoint"`
	KeyFile  string `yaml:"key_file"`
}

// Load reads the optional YAML file at path (empty path or a missing file is
// not an error), applies environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env + defaults
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RATINGS_URL"); v != "" {
		cfg.Ratings.Endpoint = v
	}
	if v := os.Getenv("RATINGS_KEY_FILE"); v != "" {
		cfg.Ratings.KeyFile = v
	}
	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}
	if v := os.Getenv("SESSION_DIR"); v != "" {
		cfg.Session.Dir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Session.RedisAddr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "filesystem"
	}
	if cfg.Session.Dir == "" {
		cfg.Session.Dir = "sessions"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session_id"
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CleanupSchedule == "" {
		cfg.Session.CleanupSchedule = "@every 10m"
	}
	if cfg.Ratings.Endpoint == "" {
		cfg.Ratings.Endpoint = "https://www.goodreads.com/book/review_counts.json"
	}
	if cfg.Ratings.KeyFile == "" {
		cfg.Ratings.KeyFile = "goodreads_apikey.txt"
	}
}

// ReadAPIKey loads the ratings API key from the configured key file.
func (c *Config) ReadAPIKey() (string, error) {
	raw, err := os.ReadFile(c.Ratings.KeyFile)
	if err != nil {
		return "", fmt.Errorf("read ratings api key: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
