package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

// Runner defines the interface for one scrape cycle.
type Runner interface {
	Run(ctx context.Context) (*domain.ScrapeStats, error)
}

type Scheduler struct {
	runner       Runner
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(runner Runner, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle bounds one run so a hung fetch can't stall the schedule past the
// next tick indefinitely.
func (s *Scheduler) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	if _, err := s.runner.Run(cycleCtx); err != nil {
		s.logger.Error("scrape cycle failed", "error", err)
	}
}
