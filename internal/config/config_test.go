package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DFM_SOURCE", "LISTEN_ADDR", "FETCH_TIMEOUT", "CACHE_TTL", "WATCH_SOURCE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.MetricsAddr != ":9090" {
		t.Errorf("addrs = %q %q", cfg.ListenAddr, cfg.MetricsAddr)
	}
	if cfg.FetchTimeout != 30*time.Second || cfg.CacheTTL != 5*time.Minute {
		t.Errorf("timeouts = %v %v", cfg.FetchTimeout, cfg.CacheTTL)
	}
	if cfg.WatchSource {
		t.Error("WatchSource should default to false")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should require a source")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DFM_SOURCE", "https://example.com/tree.xml")
	t.Setenv("FETCH_TIMEOUT", "45")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("WATCH_SOURCE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchTimeout != 45*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if !cfg.WatchSource {
		t.Error("WatchSource = false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "0s")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero FETCH_TIMEOUT")
	}
}

func TestAllowLists(t *testing.T) {
	t.Setenv("DFM_SOURCE", "https://example.com/tree.xml")
	t.Setenv("DFM_ALLOWED_SOURCES", " s3://docs/tree.xml, ,/srv/extra.xml")
	t.Setenv("DFM_ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sources := map[string]bool{
		"https://example.com/tree.xml": true,
		"s3://docs/tree.xml":           true,
		"/srv/extra.xml":               true,
		"/etc/other.xml":               false,
		"":                             false,
	}
	for loc, want := range sources {
		if got := cfg.SourceAllowed(loc); got != want {
			t.Errorf("SourceAllowed(%q) = %v, want %v", loc, got, want)
		}
	}

	if !cfg.OriginAllowed("https://APP.example.com") {
		t.Error("listed origin should be allowed")
	}
	if cfg.OriginAllowed("https://evil.example") {
		t.Error("unlisted origin should be rejected")
	}
	cfg.AllowedOrigins = []string{"*"}
	if !cfg.OriginAllowed("https://evil.example") {
		t.Error("wildcard should allow any origin")
	}
}
