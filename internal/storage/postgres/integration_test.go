//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
	store     *PostStore
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_raw_job_posts.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
	s.store = NewPostStore(db)
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM raw_job_posts")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func fixturePost(redditID string, createdUTC time.Time) domain.JobPost {
	return domain.JobPost{
		RedditID:   redditID,
		Title:      "[Hiring] " + redditID,
		Body:       utils.Ptr("Looking for a developer."),
		Author:     utils.Ptr("job_poster"),
		CreatedUTC: createdUTC,
		Score:      5,
		URL:        utils.Ptr("https://reddit.com/r/forhire/" + redditID),
		Subreddit:  utils.Ptr("forhire"),
	}
}

func (s *PostgresIntegrationSuite) insertOne(redditID string, createdUTC time.Time) int64 {
	ids, err := s.store.InsertBatch(s.ctx, []domain.JobPost{fixturePost(redditID, createdUTC)})
	s.Require().NoError(err)
	s.Require().Len(ids, 1)
	return ids[0]
}

func (s *PostgresIntegrationSuite) TestInsertBatch_NewPosts() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	ids, err := s.store.InsertBatch(s.ctx, []domain.JobPost{
		fixturePost("aaa", now),
		fixturePost("bbb", now),
	})
	s.NoError(err)
	s.Len(ids, 2)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM raw_job_posts")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestInsertBatch_SkipsDuplicates() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	ids, err := s.store.InsertBatch(s.ctx, []domain.JobPost{fixturePost("aaa", now)})
	s.NoError(err)
	s.Len(ids, 1)

	ids, err = s.store.InsertBatch(s.ctx, []domain.JobPost{
		fixturePost("aaa", now),
		fixturePost("bbb", now),
	})
	s.NoError(err)
	s.Len(ids, 1)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM raw_job_posts")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestGetByID_Roundtrip() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := s.insertOne("aaa", now)

	post, err := s.store.GetByID(s.ctx, id)
	s.NoError(err)
	s.Equal("aaa", post.RedditID)
	s.Equal("[Hiring] aaa", post.Title)
	s.Equal("Looking for a developer.", *post.Body)
	s.Equal("forhire", *post.Subreddit)
	s.WithinDuration(now, post.CreatedUTC, time.Second)
	s.Nil(post.CleanedTitle)
	s.Nil(post.ProcessedAt)
	s.False(post.Enriched())
}

func (s *PostgresIntegrationSuite) TestGetByID_NotFound() {
	_, err := s.store.GetByID(s.ctx, 99999)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestApplyEnrichment() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := s.insertOne("aaa", now)

	enrichment := domain.Enrichment{
		CleanedTitle: "Go Developer",
		CleanedText:  "Remote contract.",
		Tags:         []string{"golang", "remote"},
	}
	err := s.store.ApplyEnrichment(s.ctx, id, enrichment)
	s.NoError(err)

	post, err := s.store.GetByID(s.ctx, id)
	s.NoError(err)
	s.Equal("Go Developer", *post.CleanedTitle)
	s.Equal("Remote contract.", *post.CleanedText)
	s.Equal(domain.TagList{"golang", "remote"}, post.Tags)
	s.NotNil(post.ProcessedAt)
	s.True(post.Enriched())
}

func (s *PostgresIntegrationSuite) TestApplyEnrichment_ReapplyOverwrites() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := s.insertOne("aaa", now)

	err := s.store.ApplyEnrichment(s.ctx, id, domain.Enrichment{
		CleanedTitle: "First",
		CleanedText:  "First text",
		Tags:         []string{"first"},
	})
	s.NoError(err)

	err = s.store.ApplyEnrichment(s.ctx, id, domain.Enrichment{
		CleanedTitle: "Second",
		CleanedText:  "Second text",
		Tags:         []string{"second"},
	})
	s.NoError(err)

	post, err := s.store.GetByID(s.ctx, id)
	s.NoError(err)
	s.Equal("Second", *post.CleanedTitle)
	s.Equal(domain.TagList{"second"}, post.Tags)
}

func (s *PostgresIntegrationSuite) TestApplyEnrichment_NotFound() {
	err := s.store.ApplyEnrichment(s.ctx, 99999, domain.Enrichment{CleanedTitle: "x"})
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestUnprocessedIDs() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	staleID := s.insertOne("stale", now)
	enrichedID := s.insertOne("enriched", now)
	freshID := s.insertOne("fresh", now)

	// Age two rows past the cutoff, enrich one of them.
	_, err := s.db.ExecContext(s.ctx,
		"UPDATE raw_job_posts SET scraped_at = NOW() - INTERVAL '3 hours' WHERE id IN ($1, $2)",
		staleID, enrichedID,
	)
	s.Require().NoError(err)

	err = s.store.ApplyEnrichment(s.ctx, enrichedID, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"a"},
	})
	s.Require().NoError(err)

	cutoff := time.Now().Add(-2 * time.Hour)
	ids, err := s.store.UnprocessedIDs(s.ctx, cutoff, 100)
	s.NoError(err)
	s.Equal([]int64{staleID}, ids)
	s.NotContains(ids, freshID)
}

func (s *PostgresIntegrationSuite) TestUnprocessedIDs_Limit() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, rid := range []string{"a", "b", "c"} {
		s.insertOne(rid, now)
	}
	_, err := s.db.ExecContext(s.ctx, "UPDATE raw_job_posts SET scraped_at = NOW() - INTERVAL '3 hours'")
	s.Require().NoError(err)

	ids, err := s.store.UnprocessedIDs(s.ctx, time.Now(), 2)
	s.NoError(err)
	s.Len(ids, 2)
}

func (s *PostgresIntegrationSuite) defaultFilter() ListFilter {
	return ListFilter{
		SortBy:    SortByCreatedUTC,
		SortOrder: SortOrderDesc,
		Limit:     20,
	}
}

func (s *PostgresIntegrationSuite) TestList_Pagination() {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, rid := range []string{"a", "b", "c", "d", "e"} {
		s.insertOne(rid, base.Add(time.Duration(i)*time.Hour))
	}

	f := s.defaultFilter()
	f.Limit = 2
	posts, total, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(5), total)
	s.Len(posts, 2)
	s.Equal("e", posts[0].RedditID)
	s.Equal("d", posts[1].RedditID)

	f.Offset = 4
	posts, total, err = s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(5), total)
	s.Len(posts, 1)
	s.Equal("a", posts[0].RedditID)
}

func (s *PostgresIntegrationSuite) TestList_SortAscending() {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.insertOne("old", base)
	s.insertOne("new", base.Add(time.Hour))

	f := s.defaultFilter()
	f.SortOrder = SortOrderAsc
	posts, _, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal("old", posts[0].RedditID)
	s.Equal("new", posts[1].RedditID)
}

func (s *PostgresIntegrationSuite) TestList_SearchCleanedFields() {
	now := time.Now().UTC()
	matchID := s.insertOne("match", now)
	otherID := s.insertOne("other", now)

	err := s.store.ApplyEnrichment(s.ctx, matchID, domain.Enrichment{
		CleanedTitle: "Senior Golang Engineer",
		CleanedText:  "Backend work.",
		Tags:         []string{"golang"},
	})
	s.Require().NoError(err)
	err = s.store.ApplyEnrichment(s.ctx, otherID, domain.Enrichment{
		CleanedTitle: "Python Developer",
		CleanedText:  "Data work.",
		Tags:         []string{"python"},
	})
	s.Require().NoError(err)

	f := s.defaultFilter()
	f.Search = "golang"
	posts, total, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(posts, 1)
	s.Equal("match", posts[0].RedditID)
}

func (s *PostgresIntegrationSuite) TestList_TagContainment() {
	now := time.Now().UTC()
	goID := s.insertOne("go-post", now)
	pyID := s.insertOne("py-post", now)
	s.insertOne("raw-post", now)

	err := s.store.ApplyEnrichment(s.ctx, goID, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"golang", "remote"},
	})
	s.Require().NoError(err)
	err = s.store.ApplyEnrichment(s.ctx, pyID, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"python"},
	})
	s.Require().NoError(err)

	f := s.defaultFilter()
	f.Tags = []string{"golang"}
	posts, total, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal("go-post", posts[0].RedditID)

	// Multiple tags are OR-ed.
	f.Tags = []string{"golang", "python"}
	_, total, err = s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(2), total)
}

func (s *PostgresIntegrationSuite) TestList_HasCleanedData() {
	now := time.Now().UTC()
	enrichedID := s.insertOne("enriched", now)
	s.insertOne("raw", now)

	err := s.store.ApplyEnrichment(s.ctx, enrichedID, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"a"},
	})
	s.Require().NoError(err)

	f := s.defaultFilter()
	f.HasCleanedData = utils.Ptr(true)
	posts, total, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal("enriched", posts[0].RedditID)

	f.HasCleanedData = utils.Ptr(false)
	posts, total, err = s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal("raw", posts[0].RedditID)
}

func (s *PostgresIntegrationSuite) TestList_DateRange() {
	s.insertOne("jan", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	s.insertOne("mar", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	s.insertOne("jun", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	f := s.defaultFilter()
	f.FromDate = utils.Ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	f.ToDate = utils.Ptr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	posts, total, err := s.store.List(s.ctx, f)
	s.NoError(err)
	s.Equal(int64(1), total)
	s.Equal("mar", posts[0].RedditID)
}

func (s *PostgresIntegrationSuite) TestList_RejectsUnknownSortField() {
	f := s.defaultFilter()
	f.SortBy = "reddit_id; DROP TABLE raw_job_posts"

	_, _, err := s.store.List(s.ctx, f)
	s.Error(err)
	s.Contains(err.Error(), "invalid sort field")
}

func (s *PostgresIntegrationSuite) TestDistinctTags() {
	now := time.Now().UTC()
	id1 := s.insertOne("one", now)
	id2 := s.insertOne("two", now)

	err := s.store.ApplyEnrichment(s.ctx, id1, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"golang", "remote"},
	})
	s.Require().NoError(err)
	err = s.store.ApplyEnrichment(s.ctx, id2, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"backend", "golang"},
	})
	s.Require().NoError(err)

	tags, err := s.store.DistinctTags(s.ctx)
	s.NoError(err)
	s.Equal([]string{"backend", "golang", "remote"}, tags)
}

func (s *PostgresIntegrationSuite) TestStats() {
	oldest := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	id1 := s.insertOne("one", oldest)
	s.insertOne("two", newest)

	err := s.store.ApplyEnrichment(s.ctx, id1, domain.Enrichment{
		CleanedTitle: "t", CleanedText: "x", Tags: []string{"a"},
	})
	s.Require().NoError(err)

	stats, err := s.store.Stats(s.ctx)
	s.NoError(err)
	s.Equal(int64(2), stats.TotalPosts)
	s.Equal(int64(1), stats.ProcessedPosts)
	s.Equal(int64(1), stats.UnprocessedPosts)
	s.WithinDuration(oldest, *stats.OldestPostDate, time.Second)
	s.WithinDuration(newest, *stats.NewestPostDate, time.Second)
}

func (s *PostgresIntegrationSuite) TestStats_EmptyStore() {
	stats, err := s.store.Stats(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), stats.TotalPosts)
	s.Nil(stats.OldestPostDate)
	s.Nil(stats.NewestPostDate)
}
