package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gearhound/gearpage-scraper/internal/config"
	"github.com/gearhound/gearpage-scraper/internal/fetch"
	"github.com/gearhound/gearpage-scraper/internal/models"
	"github.com/gearhound/gearpage-scraper/internal/queue"
	"github.com/gearhound/gearpage-scraper/internal/ratelimit"
)

func main() {
	var (
		urls        = flag.String("urls", "", "Comma-separated list of post URLs to fetch")
		inputFile   = flag.String("file", "", "File containing post URLs (one per line)")
		output      = flag.String("output", "", "Write the records to this file instead of stdout")
		concurrency = flag.Int("concurrency", 0, "Number of fetch workers (overrides FETCHER_CONCURRENCY)")
	)
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *concurrency > 0 {
		cfg.Fetcher.Concurrency = *concurrency
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
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

	taskQueue := queue.NewInMemoryQueue()
	if err := loadTasks(taskQueue, *urls, *inputFile); err != nil {
		logger.Error("failed to load tasks", "error", err)
		os.Exit(1)
	}

	if taskQueue.Size() == 0 {
		fmt.Println("No post URLs to fetch. Use -urls or -file.")
		flag.Usage()
		os.Exit(2)
	}
	taskQueue.Close()

	opts := fetch.DefaultOptions()
	opts.Timeout = cfg.Fetcher.Timeout
	opts.ProxyFormat = cfg.Fetcher.ProxyFormat
	if cfg.Fetcher.UserAgent != "" {
		opts.UserAgent = cfg.Fetcher.UserAgent
	}
	fetcher := fetch.New(opts)
	limiter := ratelimit.NewSimpleRateLimiter(cfg.Fetcher.DelayMin, cfg.Fetcher.DelayMax)

	logger.Info("fetching posts", "tasks", taskQueue.Size(), "workers", cfg.Fetcher.Concurrency)

	var (
		mu      sync.Mutex
		records []*models.PostRecord
		failed  int
	)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Fetcher.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := taskQueue.Pop(ctx)
				if err != nil {
					return
				}

				if err := limiter.Wait(ctx); err != nil {
					return
				}

				record, err := fetcher.FetchPost(ctx, task.URL)
				if err != nil {
					logger.Error("failed to fetch post", "url", task.URL, "error", err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}

				logger.Info("fetched post", "url", task.URL)
				mu.Lock()
				records = append(records, record)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil && len(records) == 0 {
		os.Exit(1)
	}

	if err := writeRecords(records, *output); err != nil {
		logger.Error("failed to write records", "error", err)
		os.Exit(1)
	}

	logger.Info("fetch completed", "fetched", len(records), "failed", failed)
}

func loadTasks(q queue.Queue, urls, inputFile string) error {
	var list []string

	if urls != "" {
		list = append(list, strings.Split(urls, ",")...)
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				list = append(list, line)
			}
		}
	}

	for _, item := range list {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if err := q.Push(queue.NewTask(item)); err != nil {
			if errors.Is(err, queue.ErrQueueClosed) {
				return err
			}
		}
	}

	return nil
}

func writeRecords(records []*models.PostRecord, output string) error {
	if records == nil {
		records = make([]*models.PostRecord, 0)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if output == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	return os.WriteFile(output, append(data, '\n'), 0o644)
}
