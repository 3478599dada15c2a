package api

import (
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

// Response shapes are owned by the API boundary and mapped explicitly from
// domain entities, so the storage schema can evolve without leaking into the
// external contract.

type jobPostResponse struct {
	ID           int64      `json:"id"`
	RedditID     string     `json:"reddit_id"`
	Title        string     `json:"title"`
	CleanedTitle *string    `json:"cleaned_title"`
	CleanedText  *string    `json:"cleaned_text"`
	Tags         []string   `json:"tags"`
	CreatedUTC   time.Time  `json:"created_utc"`
	Score        int        `json:"score"`
	URL          *string    `json:"url"`
	Subreddit    *string    `json:"subreddit"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

func toJobPostResponse(p domain.JobPost) jobPostResponse {
	return jobPostResponse{
		ID:           p.ID,
		RedditID:     p.RedditID,
		Title:        p.Title,
		CleanedTitle: p.CleanedTitle,
		CleanedText:  p.CleanedText,
		Tags:         p.Tags,
		CreatedUTC:   p.CreatedUTC,
		Score:        p.Score,
		URL:          p.URL,
		Subreddit:    p.Subreddit,
		ProcessedAt:  p.ProcessedAt,
	}
}

type listResponse struct {
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	Data       []jobPostResponse `json:"data"`
}

type statsResponse struct {
	TotalPosts              int64      `json:"total_posts"`
	PostsWithCleanedData    int64      `json:"posts_with_cleaned_data"`
	PostsWithoutCleanedData int64      `json:"posts_without_cleaned_data"`
	OldestPostDate          *time.Time `json:"oldest_post_date"`
	NewestPostDate          *time.Time `json:"newest_post_date"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
