package postgres

import (
	"context"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

// DistinctTags returns every tag that appears in at least one enriched post,
// sorted alphabetically.
func (s *PostStore) DistinctTags(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT jsonb_array_elements_text(tags) AS tag
		FROM raw_job_posts
		WHERE tags IS NOT NULL
		ORDER BY tag`

	var tags []string
	if err := s.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, err
	}
	return tags, nil
}

// Stats aggregates counts and the created_utc date range over all posts.
func (s *PostStore) Stats(ctx context.Context) (*domain.StoreStats, error) {
	query := `
		SELECT COUNT(*)            AS total,
		       COUNT(processed_at) AS processed,
		       MIN(created_utc)    AS oldest,
		       MAX(created_utc)    AS newest
		FROM raw_job_posts`

	var row struct {
		Total     int64      `db:"total"`
		Processed int64      `db:"processed"`
		Oldest    *time.Time `db:"oldest"`
		Newest    *time.Time `db:"newest"`
	}
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return nil, err
	}

	return &domain.StoreStats{
		TotalPosts:       row.Total,
		ProcessedPosts:   row.Processed,
		UnprocessedPosts: row.Total - row.Processed,
		OldestPostDate:   row.Oldest,
		NewestPostDate:   row.Newest,
	}, nil
}
