package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("KSTARPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("kstarpick")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".kstarpick"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.name", cfg.Source.Name)
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("source.article_path", cfg.Source.ArticlePath)
	v.SetDefault("source.latest_path", cfg.Source.LatestPath)
	v.SetDefault("source.category_pages", cfg.Source.CategoryPages)
	v.SetDefault("source.image_proxy_base", cfg.Source.ImageProxyBase)
	v.SetDefault("source.default_cover", cfg.Source.DefaultCover)
	v.SetDefault("source.default_avatar", cfg.Source.DefaultAvatar)
	v.SetDefault("source.crawler_author_id", cfg.Source.CrawlerAuthorID)
	v.SetDefault("source.crawler_email", cfg.Source.CrawlerEmail)

	v.SetDefault("crawl.max_items", cfg.Crawl.MaxItems)
	v.SetDefault("crawl.concurrent_requests", cfg.Crawl.ConcurrentRequests)
	v.SetDefault("crawl.group_delay", cfg.Crawl.GroupDelay)
	v.SetDefault("crawl.max_load_more_clicks", cfg.Crawl.MaxLoadMoreClicks)
	v.SetDefault("crawl.reclassify_limit", cfg.Crawl.ReclassifyLimit)
	v.SetDefault("crawl.reclassify_group_size", cfg.Crawl.ReclassifyGroupSize)
	v.SetDefault("crawl.reclassify_delay", cfg.Crawl.ReclassifyDelay)

	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)
	v.SetDefault("browser.max_retries", cfg.Browser.MaxRetries)
	v.SetDefault("browser.retry_delay", cfg.Browser.RetryDelay)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)
	v.SetDefault("browser.load_more_wait", cfg.Browser.LoadMoreWait)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.min_delay", cfg.Fetcher.MinDelay)
	v.SetDefault("fetcher.max_delay", cfg.Fetcher.MaxDelay)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.alt_user_agents", cfg.Fetcher.AltUserAgents)

	v.SetDefault("storage.uri", cfg.Storage.URI)
	v.SetDefault("storage.database", cfg.Storage.Database)
	v.SetDefault("storage.articles_collection", cfg.Storage.ArticlesCollection)
	v.SetDefault("storage.image_hash_collection", cfg.Storage.ImageHashCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("server.port", cfg.Server.Port)
}
