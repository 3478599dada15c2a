package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobPost is one scraped posting. Raw fields are written once by the scraper;
// the cleaned fields stay NULL until the worker enriches the row. A post is
// either fully raw or fully enriched, never in between.
type JobPost struct {
	ID         int64     `db:"id" json:"id"`
	RedditID   string    `db:"reddit_id" json:"reddit_id"`
	Title      string    `db:"title" json:"title"`
	Body       *string   `db:"body" json:"body"`
	Author     *string   `db:"author" json:"author"`
	CreatedUTC time.Time `db:"created_utc" json:"created_utc"`
	Score      int       `db:"score" json:"score"`
	URL        *string   `db:"url" json:"url"`
	Subreddit  *string   `db:"subreddit" json:"subreddit"`
	ScrapedAt  time.Time `db:"scraped_at" json:"scraped_at"`

	CleanedTitle *string    `db:"cleaned_title" json:"cleaned_title"`
	CleanedText  *string    `db:"cleaned_text" json:"cleaned_text"`
	Tags         TagList    `db:"tags" json:"tags"`
	ProcessedAt  *time.Time `db:"processed_at" json:"processed_at"`
}

// Enriched reports whether the worker has already processed this post.
func (p *JobPost) Enriched() bool {
	return p.ProcessedAt != nil
}

// Enrichment is the structured output of the analyzer for one post.
type Enrichment struct {
	CleanedTitle string
	CleanedText  string
	Tags         []string
}

// TagList maps a []string onto a JSONB column.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

func (t *TagList) Scan(src any) error {
	if src == nil {
		*t = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
}
