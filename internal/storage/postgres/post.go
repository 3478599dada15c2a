package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// InsertBatch inserts each post unless its reddit_id already exists and
// returns the internal ids of the rows actually inserted, in input order.
// Rows commit independently: the unique constraint on reddit_id is the dedup
// guarantee, and a duplicate is a silent skip, not an error. A crash mid-batch
// leaves the rows inserted so far committed.
func (s *PostStore) InsertBatch(ctx context.Context, posts []domain.JobPost) ([]int64, error) {
	query := `
		INSERT INTO raw_job_posts (
			reddit_id, title, body, author, created_utc, score, url, subreddit
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (reddit_id) DO NOTHING
		RETURNING id`

	inserted := make([]int64, 0, len(posts))
	for i := range posts {
		p := &posts[i]

		var id int64
		err := s.db.QueryRowContext(ctx, query,
			p.RedditID,
			p.Title,
			p.Body,
			p.Author,
			p.CreatedUTC,
			p.Score,
			p.URL,
			p.Subreddit,
		).Scan(&id)

		if errors.Is(err, sql.ErrNoRows) {
			// Duplicate reddit_id, already stored.
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert post %s: %w", p.RedditID, err)
		}

		inserted = append(inserted, id)
	}

	return inserted, nil
}

// GetByID returns one post or domain.ErrNotFound.
func (s *PostStore) GetByID(ctx context.Context, id int64) (*domain.JobPost, error) {
	var post domain.JobPost
	query := `
		SELECT id, reddit_id, title, body, author, created_utc, score, url,
		       subreddit, scraped_at, cleaned_title, cleaned_text, tags, processed_at
		FROM raw_job_posts
		WHERE id = $1`

	err := s.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ApplyEnrichment sets all cleaned fields plus processed_at in one statement.
// Re-applying to an already enriched row simply overwrites; the operation is
// an idempotent upsert of the enrichment, never an increment.
func (s *PostStore) ApplyEnrichment(ctx context.Context, id int64, e domain.Enrichment) error {
	query := `
		UPDATE raw_job_posts
		SET cleaned_title = $2,
		    cleaned_text = $3,
		    tags = $4,
		    processed_at = NOW()
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		id,
		e.CleanedTitle,
		e.CleanedText,
		domain.TagList(e.Tags),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UnprocessedIDs lists raw rows that were scraped before the cutoff and never
// enriched. The scraper re-publishes these to close the gap left by a crash
// between store commit and queue publish.
func (s *PostStore) UnprocessedIDs(ctx context.Context, olderThan time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id FROM raw_job_posts
		WHERE processed_at IS NULL AND scraped_at < $1
		ORDER BY id
		LIMIT $2`

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, olderThan, limit); err != nil {
		return nil, err
	}
	return ids, nil
}
