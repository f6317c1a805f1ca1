package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Source.BaseURL); err != nil {
		return fmt.Errorf("source.base_url: %w", err)
	}
	if cfg.Source.ArticlePath == "" {
		return fmt.Errorf("source.article_path must not be empty")
	}
	if cfg.Source.ImageProxyBase == "" {
		return fmt.Errorf("source.image_proxy_base must not be empty")
	}

	if cfg.Crawl.MaxItems < 1 {
		return fmt.Errorf("crawl.max_items must be >= 1, got %d", cfg.Crawl.MaxItems)
	}
	if cfg.Crawl.ConcurrentRequests < 1 {
		return fmt.Errorf("crawl.concurrent_requests must be >= 1, got %d", cfg.Crawl.ConcurrentRequests)
	}
	if cfg.Crawl.ConcurrentRequests > 50 {
		return fmt.Errorf("crawl.concurrent_requests must be <= 50, got %d", cfg.Crawl.ConcurrentRequests)
	}
	if cfg.Crawl.GroupDelay < 0 {
		return fmt.Errorf("crawl.group_delay must be >= 0")
	}
	if cfg.Crawl.ReclassifyLimit < 1 {
		return fmt.Errorf("crawl.reclassify_limit must be >= 1, got %d", cfg.Crawl.ReclassifyLimit)
	}
	if cfg.Crawl.ReclassifyGroupSize < 1 {
		return fmt.Errorf("crawl.reclassify_group_size must be >= 1, got %d", cfg.Crawl.ReclassifyGroupSize)
	}

	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}
	if cfg.Browser.MaxRetries < 1 {
		return fmt.Errorf("browser.max_retries must be >= 1, got %d", cfg.Browser.MaxRetries)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MinDelay > cfg.Fetcher.MaxDelay {
		return fmt.Errorf("fetcher.min_delay must be <= fetcher.max_delay")
	}
	if len(cfg.Fetcher.UserAgents) == 0 {
		return fmt.Errorf("fetcher.user_agents must not be empty")
	}

	if cfg.Storage.URI == "" {
		return fmt.Errorf("storage.uri must not be empty")
	}
	if cfg.Storage.Database == "" {
		return fmt.Errorf("storage.database must not be empty")
	}
	if cfg.Storage.ArticlesCollection == "" {
		return fmt.Errorf("storage.articles_collection must not be empty")
	}
	if cfg.Storage.ImageHashCollection == "" {
		return fmt.Errorf("storage.image_hash_collection must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
