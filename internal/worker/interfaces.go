package worker

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

type PostStore interface {
	GetByID(ctx context.Context, id int64) (*domain.JobPost, error)
	ApplyEnrichment(ctx context.Context, id int64, e domain.Enrichment) error
}

type Analyzer interface {
	Analyze(ctx context.Context, title, body string) (domain.Enrichment, error)
}

type DeadLetterer interface {
	PublishFailed(ctx context.Context, body []byte) error
}
