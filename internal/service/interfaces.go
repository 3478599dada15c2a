package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

type Source interface {
	FetchPosts(ctx context.Context, maxPages int) ([]domain.JobPost, error)
}

type PostStore interface {
	InsertBatch(ctx context.Context, posts []domain.JobPost) ([]int64, error)
	UnprocessedIDs(ctx context.Context, olderThan time.Time, limit int) ([]int64, error)
}

type TaskPublisher interface {
	PublishJobs(ctx context.Context, ids []int64) error
}
