package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/analyzer"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/config"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/queue"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/storage/postgres"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("connected to database")

	rabbit, err := queue.DialWithRetry(ctx, queue.Config{
		URL:         cfg.RabbitMQ.URL,
		QueueName:   cfg.RabbitMQ.QueueName,
		FailedQueue: cfg.RabbitMQ.FailedQueueName(),
	}, cfg.Worker.ConnectAttempts, cfg.Worker.ConnectDelay, log)
	if err != nil {
		log.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbit.Close()

	oracle, err := analyzer.New(cfg.Oracle, log)
	if err != nil {
		log.Error("failed to create analyzer", "error", err)
		os.Exit(1)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, mux); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	store := postgres.NewPostStore(db)
	w := worker.New(store, oracle, rabbit, cfg.Worker.MaxRedeliveries, log)

	deliveries, err := rabbit.Consume()
	if err != nil {
		log.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}

	log.Info("worker started", "queue", cfg.RabbitMQ.QueueName)

	err = w.Run(ctx, deliveries)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped cleanly")
}
