package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

// Sort fields the listing endpoint accepts. Anything else is a caller error
// and must be rejected before a query is built.
const (
	SortByCreatedUTC  = "created_utc"
	SortByProcessedAt = "processed_at"
	SortByScore       = "score"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

var allowedSortFields = map[string]bool{
	SortByCreatedUTC:  true,
	SortByProcessedAt: true,
	SortByScore:       true,
}

// ValidSortField reports whether field is on the sort allow-list.
func ValidSortField(field string) bool {
	return allowedSortFields[field]
}

// ValidSortOrder reports whether order is "asc" or "desc".
func ValidSortOrder(order string) bool {
	return order == SortOrderAsc || order == SortOrderDesc
}

// ListFilter describes the read API query surface over stored posts.
type ListFilter struct {
	Search         string
	Tags           []string
	FromDate       *time.Time
	ToDate         *time.Time
	HasCleanedData *bool
	SortBy         string
	SortOrder      string
	Offset         uint64
	Limit          uint64
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// List returns one page of posts plus the total row count for the filter.
// SortBy and SortOrder must already be validated; List refuses to build an
// ORDER BY from anything outside the allow-list.
func (s *PostStore) List(ctx context.Context, f ListFilter) ([]domain.JobPost, int64, error) {
	if !ValidSortField(f.SortBy) {
		return nil, 0, fmt.Errorf("invalid sort field %q", f.SortBy)
	}
	if !ValidSortOrder(f.SortOrder) {
		return nil, 0, fmt.Errorf("invalid sort order %q", f.SortOrder)
	}

	countQuery, countArgs, err := applyFilter(psql.Select("COUNT(*)").From("raw_job_posts"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	builder := applyFilter(psql.Select(
		"id", "reddit_id", "title", "body", "author", "created_utc", "score",
		"url", "subreddit", "scraped_at", "cleaned_title", "cleaned_text",
		"tags", "processed_at",
	).From("raw_job_posts"), f).
		OrderBy(f.SortBy + " " + f.SortOrder).
		Offset(f.Offset).
		Limit(f.Limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var posts []domain.JobPost
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	return posts, total, nil
}

func applyFilter(b sq.SelectBuilder, f ListFilter) sq.SelectBuilder {
	if f.HasCleanedData != nil {
		if *f.HasCleanedData {
			b = b.Where("processed_at IS NOT NULL")
		} else {
			b = b.Where("processed_at IS NULL")
		}
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"cleaned_title": pattern},
			sq.ILike{"cleaned_text": pattern},
		})
	}

	if len(f.Tags) > 0 {
		or := make(sq.Or, 0, len(f.Tags))
		for _, tag := range f.Tags {
			// jsonb containment: tags @> '["backend"]'
			member, _ := json.Marshal([]string{tag})
			or = append(or, sq.Expr("tags @> ?::jsonb", string(member)))
		}
		b = b.Where(or)
	}

	if f.FromDate != nil {
		b = b.Where(sq.GtOrEq{"created_utc": *f.FromDate})
	}
	if f.ToDate != nil {
		b = b.Where(sq.LtOrEq{"created_utc": *f.ToDate})
	}

	return b
}
