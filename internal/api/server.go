// Package api is the read-only HTTP facade over the post store: filtered
// listing, single lookup, tag listing and aggregate stats. It never writes.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/domain"
	"github.com/pablolteixeira/reddit-job-posts-web-scraping/internal/storage/postgres"
)

type PostStore interface {
	List(ctx context.Context, f postgres.ListFilter) ([]domain.JobPost, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.JobPost, error)
	DistinctTags(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	store  PostStore
	pinger Pinger
	cache  *Cache
	logger *slog.Logger
	router *mux.Router
}

func NewServer(store PostStore, pinger Pinger, cache *Cache, logger *slog.Logger) *Server {
	s := &Server{
		store:  store,
		pinger: pinger,
		cache:  cache,
		logger: logger.With("component", "api"),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/job-posts", s.handleListPosts).Methods(http.MethodGet)
	v1.HandleFunc("/job-posts/{id:[0-9]+}", s.handleGetPost).Methods(http.MethodGet)
	v1.HandleFunc("/tags", s.handleTags).Methods(http.MethodGet)
	v1.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	s.router = r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}
