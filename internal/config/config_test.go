package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// pointConfigAt isolates Load from any real user config file.
func pointConfigAt(t *testing.T, path string) {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "absent.yaml")
	}
	t.Setenv("GOLINK_CONFIG", path)
}

func TestLoadDefaults(t *testing.T) {
	pointConfigAt(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.CacheBackend != BackendFile {
		t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, BackendFile)
	}
	if cfg.CacheMaxAge != 12*time.Hour {
		t.Errorf("CacheMaxAge = %v, want 12h", cfg.CacheMaxAge)
	}
	if cfg.MinConfidence != 50 || cfg.AmbiguityMargin != 10 {
		t.Errorf("matching policy = (%v, %v), want (50, 10)", cfg.MinConfidence, cfg.AmbiguityMargin)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.CachePath == "" {
		t.Error("CachePath should have a default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
endpoint: https://directory.internal.example.com/api
api_token: file-token
cache_max_age: 30m
min_confidence: 60
log_level: debug
redis:
  addr: localhost:6379
  db: 2
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	pointConfigAt(t, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Endpoint != "https://directory.internal.example.com/api" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.APIToken != "file-token" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.CacheMaxAge != 30*time.Minute {
		t.Errorf("CacheMaxAge = %v, want 30m", cfg.CacheMaxAge)
	}
	if cfg.MinConfidence != 60 {
		t.Errorf("MinConfidence = %v, want 60", cfg.MinConfidence)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = (%q, %d)", cfg.RedisAddr, cfg.RedisDB)
	}
	// File only sets redis connection details, backend stays file.
	if cfg.CacheBackend != BackendFile {
		t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, BackendFile)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_token: file-token\nlog_level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	pointConfigAt(t, path)
	t.Setenv("GOLINK_API_TOKEN", "env-token")
	t.Setenv("GOLINK_CACHE_MAX_AGE", "1h")
	t.Setenv("GOLINK_MAX_CANDIDATES", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIToken != "env-token" {
		t.Errorf("APIToken = %q, want env-token", cfg.APIToken)
	}
	if cfg.CacheMaxAge != time.Hour {
		t.Errorf("CacheMaxAge = %v, want 1h", cfg.CacheMaxAge)
	}
	if cfg.MaxCandidates != 9 {
		t.Errorf("MaxCandidates = %d, want 9", cfg.MaxCandidates)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, file value should survive", cfg.LogLevel)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "endpoint: [unclosed\n"},
		{"bad duration", "cache_max_age: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			pointConfigAt(t, path)

			if _, err := Load(); err == nil {
				t.Error("Load should fail on invalid config file")
			}
		})
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	pointConfigAt(t, "")
	t.Setenv("GOLINK_CACHE_BACKEND", "memcached")

	if _, err := Load(); err == nil {
		t.Error("Load should reject unknown cache backend")
	}
}

func TestLoadRedisBackendNeedsAddr(t *testing.T) {
	pointConfigAt(t, "")
	t.Setenv("GOLINK_CACHE_BACKEND", BackendRedis)

	if _, err := Load(); err == nil {
		t.Error("redis backend without address should fail")
	}

	t.Setenv("GOLINK_REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheBackend != BackendRedis {
		t.Errorf("CacheBackend = %q, want %q", cfg.CacheBackend, BackendRedis)
	}
}
