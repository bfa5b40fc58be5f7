// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config holds all dfm configuration.
type Config struct {
	// Document
	Source  string // URL, s3://bucket/key, or local path
	BaseURL string // override for resolving file locations

	// Extra locations API clients may name when creating a session.
	// Source is always allowed.
	AllowedSources []string

	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth (optional; empty disables bearer checks)
	JWTSecret string

	// Origins allowed to open event websockets besides the server's own
	// host. "*" allows any origin.
	AllowedOrigins []string

	// S3 sources
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	// Loading
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	WatchSource  bool

	// Display options string in dfm-config form
	Display string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Source:       envOr("DFM_SOURCE", ""),
		BaseURL:      envOr("DFM_BASE_URL", ""),
		ListenAddr:   envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:  envOr("METRICS_ADDR", ":9090"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "json"),
		JWTSecret:    envOr("JWT_SECRET", ""),
		S3Endpoint:   envOr("S3_ENDPOINT", ""),
		S3Region:     envOr("S3_REGION", "us-east-1"),
		S3AccessKey:  envOr("S3_ACCESS_KEY", ""),
		S3SecretKey:  envOr("S3_SECRET_KEY", ""),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),
		CacheTTL:     envDuration("CACHE_TTL", 5*time.Minute),
		WatchSource:  envBool("WATCH_SOURCE", false),
		Display:      envOr("DFM_CONFIG", ""),
	}
	cfg.AllowedSources = envList("DFM_ALLOWED_SOURCES")
	cfg.AllowedOrigins = envList("DFM_ALLOWED_ORIGINS")

	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}
	return cfg, nil
}

// Validate checks the settings a command needs before it starts.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("DFM_SOURCE (or --source) is required")
	}
	return nil
}

// SourceAllowed reports whether a client may open location.
func (c *Config) SourceAllowed(location string) bool {
	if location == "" {
		return false
	}
	return location == c.Source || slices.Contains(c.AllowedSources, location)
}

// OriginAllowed reports whether origin is in AllowedOrigins.
func (c *Config) OriginAllowed(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList splits a comma-separated value, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envDuration accepts Go durations ("90s") or plain seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
