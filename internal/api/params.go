package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/storage/postgres"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseListParams validates every listing query parameter and builds the
// store filter. Any invalid value aborts with a descriptive error before a
// query is ever executed.
func parseListParams(r *http.Request) (postgres.ListFilter, int, int, error) {
	q := r.URL.Query()
	var f postgres.ListFilter

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = n
	}

	pageSize := defaultPageSize
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			return f, 0, 0, fmt.Errorf("page_size must be between 1 and %d", maxPageSize)
		}
		pageSize = n
	}

	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = postgres.SortByCreatedUTC
	}
	if !postgres.ValidSortField(sortBy) {
		return f, 0, 0, fmt.Errorf("invalid sort_by field: %s", sortBy)
	}

	sortOrder := strings.ToLower(q.Get("sort_order"))
	if sortOrder == "" {
		sortOrder = postgres.SortOrderDesc
	}
	if !postgres.ValidSortOrder(sortOrder) {
		return f, 0, 0, fmt.Errorf("sort_order must be 'asc' or 'desc'")
	}

	f.Search = q.Get("search")

	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}

	if raw := q.Get("from_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return f, 0, 0, fmt.Errorf("invalid from_date: %s", raw)
		}
		f.FromDate = &t
	}
	if raw := q.Get("to_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return f, 0, 0, fmt.Errorf("invalid to_date: %s", raw)
		}
		f.ToDate = &t
	}

	if raw := q.Get("has_cleaned_data"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, 0, 0, fmt.Errorf("has_cleaned_data must be a boolean")
		}
		f.HasCleanedData = &b
	}

	f.SortBy = sortBy
	f.SortOrder = sortOrder
	f.Offset = uint64(page-1) * uint64(pageSize)
	f.Limit = uint64(pageSize)

	return f, page, pageSize, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
