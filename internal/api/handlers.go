package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.PingContext(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database connection failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	// Parameter validation happens in full before any query is built; an
	// unknown sort field is a client error, never a query.
	filter, page, pageSize, err := parseListParams(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list posts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "error querying job posts")
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	data := make([]jobPostResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, toJobPostResponse(p))
	}

	s.writeJSON(w, http.StatusOK, listResponse{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Data:       data,
	})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := s.store.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("job post with id %d not found", id))
		return
	}
	if err != nil {
		s.logger.Error("get post failed", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "error fetching job post")
		return
	}

	s.writeJSON(w, http.StatusOK, toJobPostResponse(*post))
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	data, err := s.cache.GetOrCompute(r.Context(), "api:tags", func(ctx context.Context) (any, error) {
		tags, err := s.store.DistinctTags(ctx)
		if err != nil {
			return nil, err
		}
		if tags == nil {
			tags = []string{}
		}
		return tags, nil
	})
	if err != nil {
		s.logger.Error("list tags failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "error fetching tags")
		return
	}
	s.writeRawJSON(w, data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	data, err := s.cache.GetOrCompute(r.Context(), "api:stats", func(ctx context.Context) (any, error) {
		stats, err := s.store.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return statsResponse{
			TotalPosts:              stats.TotalPosts,
			PostsWithCleanedData:    stats.ProcessedPosts,
			PostsWithoutCleanedData: stats.UnprocessedPosts,
			OldestPostDate:          stats.OldestPostDate,
			NewestPostDate:          stats.NewestPostDate,
		}, nil
	})
	if err != nil {
		s.logger.Error("fetch stats failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "error fetching statistics")
		return
	}
	s.writeRawJSON(w, data)
}
