package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gearhound/gearpage-scraper/internal/browser"
	"github.com/gearhound/gearpage-scraper/internal/config"
	"github.com/gearhound/gearpage-scraper/internal/crawler"
	"github.com/gearhound/gearpage-scraper/internal/publish"
	"github.com/gearhound/gearpage-scraper/internal/storage"
)

func main() {
	var (
		pages    = flag.Int("pages", 0, "Maximum number of result pages to capture (overrides SCRAPER_MAX_PAGES)")
		delay    = flag.Duration("delay", 0, "Delay between pagination requests (overrides SCRAPER_INTER_PAGE_DELAY)")
		output   = flag.String("output", "", "Directory for batch JSON files (overrides SCRAPER_OUTPUT_DIR)")
		headless = flag.Bool("headless", true, "Run the browser in headless mode")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <query>\n\nScrape The Gear Page post search results into JSON files.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		flag.Usage()
		os.Exit(2)
	}

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *pages > 0 {
		cfg.Scraper.MaxPages = *pages
	}
	if *delay > 0 {
		cfg.Scraper.InterPageDelay = *delay
	}
	if *output != "" {
		cfg.Scraper.OutputDir = *output
	}
	applyHeadlessFlag(cfg, flag.CommandLine, *headless)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	})
	if err != nil {
		logger.Error("failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		logger.Error("failed to open page", "error", err)
		os.Exit(1)
	}
	defer page.Close()

	session := crawler.NewBrowserSession(page, cfg.Scraper.WaitTimeout)
	store := storage.NewBatchStore(cfg.Scraper.OutputDir)
	controller := crawler.NewController(session, store, cfg.Scraper.MaxPages, cfg.Scraper.InterPageDelay)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher := publish.NewBatchPublisher(client, cfg.Redis.Stream)
		defer publisher.Close()
		controller.WithPublisher(publisher)
	}

	logger.Info("starting scrape", "query", query, "max_pages", cfg.Scraper.MaxPages)

	if err := controller.Run(ctx, query); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("scrape cancelled")
			return
		}
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}

	logger.Info("scrape completed")
}

// applyHeadlessFlag lets -headless override BROWSER_HEADLESS in either
// direction, but only when the flag was given on the command line; the
// flag's default never silently beats the environment.
func applyHeadlessFlag(cfg *config.Config, fs *flag.FlagSet, value bool) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Browser.Headless = value
		}
	})
}

func setupLogger(cfg config.Logging) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
