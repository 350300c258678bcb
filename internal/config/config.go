package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is the OrgOrg API base. The fetcher appends its own
	// versioned path.
	DefaultEndpoint = "https://orgorg.us/api"

	// Cache backends.
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	// Directory service
	Endpoint     string        // base URL of the directory service
	APIToken     string        // bearer token, required for any fetch
	FetchTimeout time.Duration // bound on one directory fetch

	// Cache
	CacheBackend string        // "file" (default) or "redis"
	CachePath    string        // file backend: path of the snapshot record
	CacheMaxAge  time.Duration // age beyond which a refresh is attempted

	// Matching policy
	MinConfidence   float64 // minimum score for a confident lone match
	AmbiguityMargin float64 // runner-up distance that forces disambiguation
	MaxCandidates   int     // candidates shown on ambiguous/not-found

	// Logging
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Serve mode
	ListenAddr      string        // ex: "127.0.0.1:8347"
	ShutdownTimeout time.Duration // graceful shutdown bound
	RefreshInterval time.Duration // background snapshot refresh interval

	// Redis backend
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisPingTimeout    time.Duration
}

// fileConfig is the YAML shape of the optional config file. Durations are
// strings in time.ParseDuration syntax.
type fileConfig struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	APIToken     string `yaml:"api_token,omitempty"`
	FetchTimeout string `yaml:"fetch_timeout,omitempty"`

	CacheBackend string `yaml:"cache_backend,omitempty"`
	CachePath    string `yaml:"cache_path,omitempty"`
	CacheMaxAge  string `yaml:"cache_max_age,omitempty"`

	MinConfidence   *float64 `yaml:"min_confidence,omitempty"`
	AmbiguityMargin *float64 `yaml:"ambiguity_margin,omitempty"`
	MaxCandidates   *int     `yaml:"max_candidates,omitempty"`

	LogLevel  string `yaml:"log_level,omitempty"`
	PrettyLog *bool  `yaml:"pretty_log,omitempty"`

	ListenAddr      string `yaml:"listen_addr,omitempty"`
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
	RefreshInterval string `yaml:"refresh_interval,omitempty"`

	Redis struct {
		Addr     string `yaml:"addr,omitempty"`
		User     string `yaml:"user,omitempty"`
		Password string `yaml:"password,omitempty"`
		DB       int    `yaml:"db,omitempty"`
	} `yaml:"redis,omitempty"`
}

// Load builds the configuration: defaults, then the YAML config file if one
// exists, then GOLINK_* environment variables on top.
func Load() (*Config, error) {
	cfg := defaults()

	path := configFilePath()
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	mergeEnv(cfg)

	if cfg.CacheBackend != BackendFile && cfg.CacheBackend != BackendRedis {
		return nil, fmt.Errorf("unknown cache backend %q (want %q or %q)",
			cfg.CacheBackend, BackendFile, BackendRedis)
	}
	if cfg.CacheBackend == BackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("cache backend %q requires a redis address", BackendRedis)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Endpoint:     DefaultEndpoint,
		FetchTimeout: 10 * time.Second,

		CacheBackend: BackendFile,
		CachePath:    defaultCachePath(),
		CacheMaxAge:  12 * time.Hour,

		MinConfidence:   50,
		AmbiguityMargin: 10,
		MaxCandidates:   5,

		LogLevel:  "warn",
		PrettyLog: true,

		ListenAddr:      "127.0.0.1:8347",
		ShutdownTimeout: 5 * time.Second,
		RefreshInterval: 12 * time.Hour,

		RedisDialTimeout:    2 * time.Second,
		RedisConnectTimeout: 5 * time.Second,
		RedisRetryInterval:  500 * time.Millisecond,
		RedisPingTimeout:    2 * time.Second,
	}
}

// configFilePath returns the config file location: $GOLINK_CONFIG when set,
// otherwise <user config dir>/golink/config.yaml. Empty when no location
// can be determined.
func configFilePath() string {
	if p := os.Getenv("GOLINK_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "golink", "config.yaml")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "golink", "directory.json")
	}
	return filepath.Join(dir, "golink", "directory.json")
}

// mergeFile overlays values from the YAML config file. A missing file is
// fine; an unreadable or unparsable one is an error so typos are not
// silently ignored.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&cfg.Endpoint, fc.Endpoint)
	setString(&cfg.APIToken, fc.APIToken)
	setString(&cfg.CacheBackend, fc.CacheBackend)
	setString(&cfg.CachePath, fc.CachePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisUser, fc.Redis.User)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	if fc.Redis.DB != 0 {
		cfg.RedisDB = fc.Redis.DB
	}

	if fc.MinConfidence != nil {
		cfg.MinConfidence = *fc.MinConfidence
	}
	if fc.AmbiguityMargin != nil {
		cfg.AmbiguityMargin = *fc.AmbiguityMargin
	}
	if fc.MaxCandidates != nil {
		cfg.MaxCandidates = *fc.MaxCandidates
	}
	if fc.PrettyLog != nil {
		cfg.PrettyLog = *fc.PrettyLog
	}

	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{fc.FetchTimeout, &cfg.FetchTimeout, "fetch_timeout"},
		{fc.CacheMaxAge, &cfg.CacheMaxAge, "cache_max_age"},
		{fc.ShutdownTimeout, &cfg.ShutdownTimeout, "shutdown_timeout"},
		{fc.RefreshInterval, &cfg.RefreshInterval, "refresh_interval"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: invalid %s %q: %w", path, d.name, d.raw, err)
		}
		*d.dst = parsed
	}

	return nil
}

// mergeEnv overlays GOLINK_* environment variables. Invalid values fall back
// to whatever was already configured.
func mergeEnv(cfg *Config) {
	cfg.Endpoint = getenv("GOLINK_ENDPOINT", cfg.Endpoint)
	cfg.APIToken = getenv("GOLINK_API_TOKEN", cfg.APIToken)
	cfg.FetchTimeout = mustDuration("GOLINK_FETCH_TIMEOUT", cfg.FetchTimeout)

	cfg.CacheBackend = getenv("GOLINK_CACHE_BACKEND", cfg.CacheBackend)
	cfg.CachePath = getenv("GOLINK_CACHE_PATH", cfg.CachePath)
	cfg.CacheMaxAge = mustDuration("GOLINK_CACHE_MAX_AGE", cfg.CacheMaxAge)

	cfg.MinConfidence = mustFloat("GOLINK_MIN_CONFIDENCE", cfg.MinConfidence)
	cfg.AmbiguityMargin = mustFloat("GOLINK_AMBIGUITY_MARGIN", cfg.AmbiguityMargin)
	cfg.MaxCandidates = getenvInt("GOLINK_MAX_CANDIDATES", cfg.MaxCandidates)

	cfg.LogLevel = getenv("GOLINK_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("GOLINK_PRETTY_LOG", cfg.PrettyLog)

	cfg.ListenAddr = getenv("GOLINK_LISTEN_ADDR", cfg.ListenAddr)
	cfg.ShutdownTimeout = mustDuration("GOLINK_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.RefreshInterval = mustDuration("GOLINK_REFRESH_INTERVAL", cfg.RefreshInterval)

	cfg.RedisAddr = getenv("GOLINK_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisUser = getenv("GOLINK_REDIS_USERNAME", cfg.RedisUser)
	cfg.RedisPassword = getenv("GOLINK_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("GOLINK_REDIS_DB", cfg.RedisDB)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
