package domain

import "time"

// ScrapeStats holds statistics about one scrape cycle.
type ScrapeStats struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Published  int
	Reconciled int
	Errors     int
	Duration   time.Duration
}

// StoreStats is the aggregate view served by the read API.
type StoreStats struct {
	TotalPosts       int64
	ProcessedPosts   int64
	UnprocessedPosts int64
	OldestPostDate   *time.Time
	NewestPostDate   *time.Time
}
