package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/api"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/config"
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

	var cache *api.Cache
	if cfg.API.RedisAddr != "" {
		cache = api.NewCache(cfg.API.RedisAddr, cfg.API.CacheTTL, log)
		defer cache.Close()
		log.Info("response cache enabled", "redis", cfg.API.RedisAddr)
	}

	store := postgres.NewPostStore(db)
	server := api.NewServer(store, db, cache, log)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	}()

	log.Info("starting api server", "addr", cfg.API.Addr)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("api server stopped")
}
