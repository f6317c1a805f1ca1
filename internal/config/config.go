package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the kstarpick crawler.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"  yaml:"source"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
}

// SourceConfig describes the publisher site being crawled and the local
// addresses rehosted assets resolve to.
type SourceConfig struct {
	Name            string   `mapstructure:"name"              yaml:"name"`
	BaseURL         string   `mapstructure:"base_url"          yaml:"base_url"`
	ArticlePath     string   `mapstructure:"article_path"      yaml:"article_path"`
	LatestPath      string   `mapstructure:"latest_path"       yaml:"latest_path"`
	CategoryPages   []string `mapstructure:"category_pages"    yaml:"category_pages"`
	ImageProxyBase  string   `mapstructure:"image_proxy_base"  yaml:"image_proxy_base"`
	DefaultCover    string   `mapstructure:"default_cover"     yaml:"default_cover"`
	DefaultAvatar   string   `mapstructure:"default_avatar"    yaml:"default_avatar"`
	CrawlerAuthorID string   `mapstructure:"crawler_author_id" yaml:"crawler_author_id"`
	CrawlerEmail    string   `mapstructure:"crawler_email"     yaml:"crawler_email"`
}

// CrawlConfig controls run-level batching and pacing.
type CrawlConfig struct {
	MaxItems            int           `mapstructure:"max_items"             yaml:"max_items"`
	ConcurrentRequests  int           `mapstructure:"concurrent_requests"   yaml:"concurrent_requests"`
	GroupDelay          time.Duration `mapstructure:"group_delay"           yaml:"group_delay"`
	MaxLoadMoreClicks   int           `mapstructure:"max_load_more_clicks"  yaml:"max_load_more_clicks"`
	ReclassifyLimit     int           `mapstructure:"reclassify_limit"      yaml:"reclassify_limit"`
	ReclassifyGroupSize int           `mapstructure:"reclassify_group_size" yaml:"reclassify_group_size"`
	ReclassifyDelay     time.Duration `mapstructure:"reclassify_delay"      yaml:"reclassify_delay"`
}

// BrowserConfig controls the headless-browser strategies.
type BrowserConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"        yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"        yaml:"retry_delay"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"       yaml:"settle_delay"`
	LoadMoreWait      time.Duration `mapstructure:"load_more_wait"     yaml:"load_more_wait"`
}

// FetcherConfig controls the lightweight HTTP fallback strategy.
type FetcherConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	MinDelay       time.Duration `mapstructure:"min_delay"       yaml:"min_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"       yaml:"max_delay"`
	UserAgents     []string      `mapstructure:"user_agents"     yaml:"user_agents"`
	AltUserAgents  []string      `mapstructure:"alt_user_agents" yaml:"alt_user_agents"`
}

// StorageConfig controls MongoDB persistence.
type StorageConfig struct {
	URI                 string `mapstructure:"uri"                   yaml:"uri"`
	Database            string `mapstructure:"database"              yaml:"database"`
	ArticlesCollection  string `mapstructure:"articles_collection"   yaml:"articles_collection"`
	ImageHashCollection string `mapstructure:"image_hash_collection" yaml:"image_hash_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// ServerConfig controls the HTTP trigger API.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns a Config with sensible defaults for the Soompi
// source.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Name:        "Soompi",
			BaseURL:     "https://www.soompi.com",
			ArticlePath: "/article/",
			LatestPath:  "/latest",
			CategoryPages: []string{
				"/k-pop",
				"/k-dramas",
				"/page/2",
				"/page/3",
			},
			ImageProxyBase:  "/api/proxy/hash-image",
			DefaultCover:    "/images/default-news.jpg",
			DefaultAvatar:   "/images/default-avatar.png",
			CrawlerAuthorID: "soompi-crawler",
			CrawlerEmail:    "crawler@soompi.com",
		},
		Crawl: CrawlConfig{
			MaxItems:            15,
			ConcurrentRequests:  3,
			GroupDelay:          1500 * time.Millisecond,
			MaxLoadMoreClicks:   10,
			ReclassifyLimit:     50,
			ReclassifyGroupSize: 5,
			ReclassifyDelay:     time.Second,
		},
		Browser: BrowserConfig{
			NavigationTimeout: 30 * time.Second,
			MaxRetries:        3,
			RetryDelay:        3 * time.Second,
			SettleDelay:       2 * time.Second,
			LoadMoreWait:      5 * time.Second,
		},
		Fetcher: FetcherConfig{
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			MinDelay:       500 * time.Millisecond,
			MaxDelay:       2500 * time.Millisecond,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
			},
			AltUserAgents: []string{
				"Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1",
				"Mozilla/5.0 (Android 11; Mobile; rv:68.0) Gecko/68.0 Firefox/88.0",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
			},
		},
		Storage: StorageConfig{
			URI:                 "mongodb://localhost:27017",
			Database:            "kstarpick",
			ArticlesCollection:  "news",
			ImageHashCollection: "image_hashes",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Server: ServerConfig{
			Port: 8420,
		},
	}
}
