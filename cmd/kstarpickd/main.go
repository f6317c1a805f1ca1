package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kstarpick/crawler/internal/api"
	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/crawler"
	"github.com/kstarpick/crawler/internal/discover"
	"github.com/kstarpick/crawler/internal/extract"
	"github.com/kstarpick/crawler/internal/images"
	"github.com/kstarpick/crawler/internal/sanitize"
	"github.com/kstarpick/crawler/internal/storage"
)

var (
	cfgFile  string
	verbose  bool
	maxItems int
	noJS     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kstarpickd",
		Short: "K-entertainment news crawler and trigger API",
		Long: `kstarpickd crawls Soompi's listing pages, extracts and sanitizes
article details, classifies each record into the portal's category
buckets, rehosts images behind the local proxy, and persists
everything to MongoDB.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(reclassifyCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// pipeline is one fully wired crawl stack with its owned resources.
type pipeline struct {
	crawler *crawler.Crawler
	store   *storage.MongoStore
	browser *extract.BrowserLoader
	httpLdr *extract.HTTPLoader
}

func (p *pipeline) close(logger *slog.Logger) {
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			logger.Warn("browser close failed", "error", err)
		}
	}
	if p.httpLdr != nil {
		p.httpLdr.Close()
	}
	if p.store != nil {
		if err := p.store.Close(context.Background()); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}
}

// buildPipeline wires the full stack. When dynamic is false no browser
// is launched and every stage runs over plain HTTP.
func buildPipeline(cfg *config.Config, dynamic bool, logger *slog.Logger) (*pipeline, error) {
	store, err := storage.NewMongoStore(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	rehoster := images.NewRehoster(store, cfg.Source.ImageProxyBase, logger)
	sanitizer := sanitize.New(cfg.Source.BaseURL, rehoster, logger)
	parser := extract.NewParser(sanitizer, rehoster, &cfg.Source, logger)
	httpLoader := extract.NewHTTPLoader(&cfg.Fetcher, logger)

	p := &pipeline{store: store, httpLdr: httpLoader}

	var discoverer discover.Discoverer
	var primary extract.PageLoader
	if dynamic {
		browser, err := extract.NewBrowserLoader(&cfg.Browser, logger)
		if err != nil {
			p.close(logger)
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		p.browser = browser
		primary = browser
		discoverer = discover.NewBrowserDiscoverer(browser.Browser(), cfg, logger)
	} else {
		discoverer = discover.NewStaticDiscoverer(httpLoader, cfg, logger)
	}

	extractor := extract.NewExtractor(primary, httpLoader, parser, logger)
	p.crawler = crawler.New(discoverer, extractor, rehoster, store, cfg, logger)
	return p, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crawl trigger API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			dynamic, err := buildPipeline(cfg, true, logger)
			if err != nil {
				return err
			}
			defer dynamic.close(logger)

			static, err := buildPipeline(cfg, false, logger)
			if err != nil {
				return err
			}
			defer static.close(logger)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			errCh := make(chan error, 1)

			server := api.NewServer(cfg.Server.Port, dynamic.crawler, static.crawler, logger)
			go func() { errCh <- server.Start() }()

			select {
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", "signal", sig)
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
}

func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg, !noJS, logger)
			if err != nil {
				return err
			}
			defer p.close(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := p.crawler.Run(ctx, crawler.RunOptions{MaxItems: maxItems})
			if err != nil {
				return err
			}

			fmt.Printf("Crawl complete: %d discovered, %d new, %d inserted\n",
				result.Discovered, result.New, result.Inserted)
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxItems, "max-items", "m", 0, "max articles per run (0 = config default)")
	cmd.Flags().BoolVar(&noJS, "no-js", false, "skip the browser and crawl over plain HTTP")
	return cmd
}

func reclassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reclassify [articleUrl]",
		Short: "Refresh categories for misclassified records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := config.ValidateURL(args[0]); err != nil {
					return fmt.Errorf("invalid URL %q: %w", args[0], err)
				}
			}

			p, err := buildPipeline(cfg, !noJS, logger)
			if err != nil {
				return err
			}
			defer p.close(logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if len(args) == 1 {
				result, err := p.crawler.ReclassifyOne(ctx, "", args[0])
				if err != nil {
					return err
				}
				if result.Updated {
					fmt.Printf("%q: %s -> %s\n", result.Title, result.OldCategory, result.NewCategory)
				} else {
					fmt.Printf("%q: already %s\n", result.Title, result.OldCategory)
				}
				return nil
			}

			result, err := p.crawler.Reclassify(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Reclassify complete: %d candidates, %d updated\n",
				result.Candidates, result.Updated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noJS, "no-js", false, "skip the browser and refresh over plain HTTP")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kstarpickd %s\n", config.Version)
		},
	}
}

// setup loads and validates configuration and builds the root logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(&cfg.Logging), nil
}

func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}
