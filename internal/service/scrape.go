package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/config"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

// ScrapeService runs one ingestion cycle: fetch posts from the source, insert
// them with dedup, publish one task per newly inserted row, then re-publish
// tasks for old rows that never got enriched.
//
// Publishing is fire-and-forget relative to the insert: if the process dies
// between store commit and publish, those rows are picked up later by the
// reconciliation pass rather than being lost. Duplicate tasks are harmless
// because the worker skips already-enriched posts.
type ScrapeService struct {
	source    Source
	store     PostStore
	publisher TaskPublisher
	logger    *slog.Logger
	config    config.ScrapeConfig
}

func NewScrapeService(
	source Source,
	store PostStore,
	publisher TaskPublisher,
	logger *slog.Logger,
	cfg config.ScrapeConfig,
) *ScrapeService {
	return &ScrapeService{
		source:    source,
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "scraper"),
		config:    cfg,
	}
}

func (s *ScrapeService) Run(ctx context.Context) (*domain.ScrapeStats, error) {
	startTime := time.Now()
	s.logger.Info("starting scrape cycle",
		"subreddits", s.config.Subreddits,
		"max_pages", s.config.MaxPagesPerRun,
	)

	posts, err := s.source.FetchPosts(ctx, s.config.MaxPagesPerRun)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	s.logger.Info("fetched posts from source", "count", len(posts))

	stats := &domain.ScrapeStats{Fetched: len(posts)}

	ids, err := s.store.InsertBatch(ctx, posts)
	if err != nil {
		// Rows inserted before the failure stay committed; the reconcile
		// pass of a later cycle will enqueue them.
		return nil, fmt.Errorf("insert posts: %w", err)
	}
	stats.Inserted = len(ids)
	stats.Duplicates = len(posts) - len(ids)

	if len(ids) > 0 {
		if err := s.publisher.PublishJobs(ctx, ids); err != nil {
			stats.Errors++
			s.logger.Error("publish tasks failed", "error", err)
		} else {
			stats.Published = len(ids)
		}
	}

	if err := s.reconcile(ctx, stats); err != nil {
		stats.Errors++
		s.logger.Error("reconcile failed", "error", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("scrape cycle completed",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"published", stats.Published,
		"reconciled", stats.Reconciled,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// reconcile re-publishes tasks for raw rows old enough that their original
// task, if one was ever published, should long since have been consumed.
func (s *ScrapeService) reconcile(ctx context.Context, stats *domain.ScrapeStats) error {
	cutoff := time.Now().Add(-s.config.ReconcileAfter)

	ids, err := s.store.UnprocessedIDs(ctx, cutoff, s.config.ReconcileLimit)
	if err != nil {
		return fmt.Errorf("list unprocessed: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.publisher.PublishJobs(ctx, ids); err != nil {
		return fmt.Errorf("republish: %w", err)
	}

	stats.Reconciled = len(ids)
	s.logger.Info("republished stale unprocessed posts", "count", len(ids))
	return nil
}
