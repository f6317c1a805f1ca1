package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	if cfg.Crawl.MaxItems != 15 {
		t.Errorf("expected max_items 15, got %d", cfg.Crawl.MaxItems)
	}
	if cfg.Crawl.ConcurrentRequests != 3 {
		t.Errorf("expected concurrent_requests 3, got %d", cfg.Crawl.ConcurrentRequests)
	}
	if cfg.Crawl.GroupDelay != 1500*time.Millisecond {
		t.Errorf("expected group_delay 1.5s, got %v", cfg.Crawl.GroupDelay)
	}
	if cfg.Crawl.ReclassifyLimit != 50 {
		t.Errorf("expected reclassify_limit 50, got %d", cfg.Crawl.ReclassifyLimit)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Crawl.ConcurrentRequests = 0 }},
		{"excessive concurrency", func(c *Config) { c.Crawl.ConcurrentRequests = 200 }},
		{"zero max items", func(c *Config) { c.Crawl.MaxItems = 0 }},
		{"bad base url", func(c *Config) { c.Source.BaseURL = "ftp://example.com" }},
		{"empty article path", func(c *Config) { c.Source.ArticlePath = "" }},
		{"empty proxy base", func(c *Config) { c.Source.ImageProxyBase = "" }},
		{"no user agents", func(c *Config) { c.Fetcher.UserAgents = nil }},
		{"min delay above max", func(c *Config) { c.Fetcher.MinDelay = 5 * time.Second }},
		{"empty mongo uri", func(c *Config) { c.Storage.URI = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kstarpick.yaml")
	data := `
crawl:
  max_items: 30
  concurrent_requests: 5
storage:
  database: kstarpick_test
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Crawl.MaxItems != 30 {
		t.Errorf("expected max_items 30, got %d", cfg.Crawl.MaxItems)
	}
	if cfg.Crawl.ConcurrentRequests != 5 {
		t.Errorf("expected concurrent_requests 5, got %d", cfg.Crawl.ConcurrentRequests)
	}
	if cfg.Storage.Database != "kstarpick_test" {
		t.Errorf("expected database kstarpick_test, got %q", cfg.Storage.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Logging.Level)
	}

	// Untouched keys keep defaults
	if cfg.Source.BaseURL != "https://www.soompi.com" {
		t.Errorf("expected default base_url, got %q", cfg.Source.BaseURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("/nonexistent/kstarpick.yaml")
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.soompi.com/latest"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateURL("not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if err := ValidateURL("file:///etc/passwd"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}
