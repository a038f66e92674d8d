package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Scraper Scraper
	Browser Browser
	Fetcher Fetcher
	Redis   Redis
	Logging Logging
}

type Scraper struct {
	MaxPages       int
	InterPageDelay time.Duration
	WaitTimeout    time.Duration
	OutputDir      string
}

type Browser struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type Fetcher struct {
	Timeout     time.Duration
	UserAgent   string
	ProxyFormat string
	Concurrency int
	DelayMin    time.Duration
	DelayMax    time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type Logging struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Scraper: Scraper{
			MaxPages:       getIntOrDefault("SCRAPER_MAX_PAGES", 5),
			InterPageDelay: getDurationOrDefault("SCRAPER_INTER_PAGE_DELAY", 2*time.Second),
			WaitTimeout:    getDurationOrDefault("SCRAPER_WAIT_TIMEOUT", 20*time.Second),
			OutputDir:      getEnvOrDefault("SCRAPER_OUTPUT_DIR", "scraped_results"),
		},
		Browser: Browser{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
		},
		Fetcher: Fetcher{
			Timeout:     getDurationOrDefault("FETCHER_TIMEOUT", 30*time.Second),
			UserAgent:   getEnvOrDefault("FETCHER_USER_AGENT", ""),
			ProxyFormat: getEnvOrDefault("FETCHER_PROXY_FORMAT", "https://r.jina.ai/%s"),
			Concurrency: getIntOrDefault("FETCHER_CONCURRENCY", 4),
			DelayMin:    getDurationOrDefault("FETCHER_DELAY_MIN", 1*time.Second),
			DelayMax:    getDurationOrDefault("FETCHER_DELAY_MAX", 3*time.Second),
		},
		Redis: Redis{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "gearpage:batches"),
		},
		Logging: Logging{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("SCRAPER_MAX_PAGES must be at least 1")
	}

	if c.Scraper.InterPageDelay < 500*time.Millisecond {
		return fmt.Errorf("SCRAPER_INTER_PAGE_DELAY must be at least 500ms")
	}

	if c.Fetcher.Concurrency < 1 {
		return fmt.Errorf("FETCHER_CONCURRENCY must be at least 1")
	}

	if c.Fetcher.DelayMin > c.Fetcher.DelayMax {
		return fmt.Errorf("FETCHER_DELAY_MIN cannot be greater than FETCHER_DELAY_MAX")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
