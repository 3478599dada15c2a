// Package reddit fetches job postings through Reddit's public JSON search
// API, looking for posts carrying the [Hiring] marker.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

const searchQuery = "[Hiring]"

// Config holds Reddit source configuration.
type Config struct {
	BaseURL        string
	UserAgent      string
	Subreddits     []string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Source struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	subreddits     []string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		userAgent:      cfg.UserAgent,
		subreddits:     cfg.Subreddits,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", "reddit"),
	}
}

// FetchPosts searches each configured subreddit for [Hiring] posts, following
// the after-cursor for up to maxPages pages per subreddit.
func (s *Source) FetchPosts(ctx context.Context, maxPages int) ([]domain.JobPost, error) {
	var all []postData

	for _, subreddit := range s.subreddits {
		after := ""
		for page := 0; page < maxPages; page++ {
			resp, err := s.fetchPage(ctx, subreddit, after)
			if err != nil {
				return s.transform(all), fmt.Errorf("fetch %s page %d: %w", subreddit, page, err)
			}

			for _, child := range resp.Data.Children {
				all = append(all, child.Data)
			}

			s.logger.Debug("fetched page",
				"subreddit", subreddit,
				"page", page,
				"posts", len(resp.Data.Children),
				"total", len(all),
			)

			after = resp.Data.After
			if after == "" {
				break
			}
		}
	}

	return s.transform(all), nil
}

func (s *Source) fetchPage(ctx context.Context, subreddit, after string) (*listingResponse, error) {
	params := url.Values{}
	params.Set("q", searchQuery)
	params.Set("restrict_sr", "1")
	params.Set("limit", fmt.Sprint(s.pageSize))
	if after != "" {
		params.Set("after", after)
	}
	pageURL := fmt.Sprintf("%s/r/%s/search.json?%s", s.baseURL, subreddit, params.Encode())

	var resp *listingResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, pageURL)
		if err == nil {
			return resp, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, pageURL string) (*listingResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &listing, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(posts []postData) []domain.JobPost {
	out := make([]domain.JobPost, 0, len(posts))

	for _, p := range posts {
		if p.ID == "" || p.Title == "" {
			s.logger.Warn("skipping post with missing id or title", "reddit_id", p.ID)
			continue
		}

		post := domain.JobPost{
			RedditID:   p.ID,
			Title:      p.Title,
			CreatedUTC: time.Unix(int64(p.CreatedUTC), 0).UTC(),
			Score:      p.Score,
		}
		if p.Selftext != "" {
			body := p.Selftext
			post.Body = &body
		}
		if p.Author != "" {
			author := p.Author
			post.Author = &author
		}
		if p.URL != "" {
			u := p.URL
			post.URL = &u
		}
		if p.Subreddit != "" {
			sub := p.Subreddit
			post.Subreddit = &sub
		}

		out = append(out, post)
	}

	return out
}
