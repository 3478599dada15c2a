package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/config"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/queue"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/scheduler"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/service"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/source/reddit"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/storage/postgres"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := logger.New("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log = logger.New(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to database")

	rabbit, err := queue.Dial(queue.Config{
		URL:         cfg.RabbitMQ.URL,
		QueueName:   cfg.RabbitMQ.QueueName,
		FailedQueue: cfg.RabbitMQ.FailedQueueName(),
	}, log)
	if err != nil {
		log.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbit.Close()

	store := postgres.NewPostStore(db)

	source := reddit.New(reddit.Config{
		BaseURL:        cfg.Reddit.BaseURL,
		UserAgent:      cfg.Reddit.UserAgent,
		Subreddits:     cfg.Scrape.Subreddits,
		PageSize:       cfg.Reddit.PageSize,
		Timeout:        cfg.Reddit.Timeout,
		MaxAttempts:    cfg.Reddit.Retry.MaxAttempts,
		InitialBackoff: cfg.Reddit.Retry.InitialBackoff,
		MaxBackoff:     cfg.Reddit.Retry.MaxBackoff,
	}, log)

	scrapeService := service.NewScrapeService(source, store, rabbit, log, cfg.Scrape)
	sched := scheduler.NewScheduler(scrapeService, cfg.Scrape.Interval, cfg.Scrape.CycleTimeout, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	log.Info("starting scraper",
		"subreddits", cfg.Scrape.Subreddits,
		"interval", cfg.Scrape.Interval,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}
