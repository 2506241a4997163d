package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookreviews")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
	if cfg.Session.Backend != "filesystem" || cfg.Session.CookieName != "session_id" {
		t.Errorf("session defaults = %+v", cfg.Session)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session ttl = %s", cfg.Session.TTL)
	}
	if cfg.Ratings.KeyFile != "goodreads_apikey.txt" {
		t.Errorf("ratings key file = %q", cfg.Ratings.KeyFile)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
listen_addr: ":9090"
database_url: "postgres://file/bookreviews"
log:
  level: debug
session:
  backend: redis
  redis_addr: "localhost:6379"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Environment wins over the file.
	t.Setenv("DATABASE_URL", "postgres://env/bookreviews")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DatabaseURL != "postgres://env/bookreviews" {
		t.Errorf("database url = %q", cfg.DatabaseURL)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Session.Backend != "redis" || cfg.Session.RedisAddr != "localhost:6379" {
		t.Errorf("session = %+v", cfg.Session)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bookreviews")

	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/bookreviews" {
		t.Errorf("database url = %q", cfg.DatabaseURL)
	}
}

func TestReadAPIKeyTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.txt")
	if err := os.WriteFile(path, []byte("  abc123\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	cfg := &Config{Ratings: RatingsConfig{KeyFile: path}}
	key, err := cfg.ReadAPIKey()
	if err != nil {
		t.Fatalf("read api key: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("key = %q", key)
	}
}
