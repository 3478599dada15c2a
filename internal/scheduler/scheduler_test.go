package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

type stubRunner struct {
	runs     atomic.Int32
	deadline atomic.Bool
}

func (r *stubRunner) Run(ctx context.Context) (*domain.ScrapeStats, error) {
	r.runs.Add(1)
	_, ok := ctx.Deadline()
	r.deadline.Store(ok)
	return &domain.ScrapeStats{}, nil
}

func schedLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsImmediatelyThenOnTicks(t *testing.T) {
	runner := &stubRunner{}
	sched := NewScheduler(runner, 20*time.Millisecond, time.Second, schedLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sched.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_BoundsEachCycle(t *testing.T) {
	runner := &stubRunner{}
	sched := NewScheduler(runner, time.Hour, 30*time.Second, schedLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sched.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, runner.deadline.Load())

	cancel()
	<-done
}
