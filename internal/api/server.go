// Package api is the thin REST surface over the query engine. It owns
// request decoding and error mapping only; filter semantics live in the
// compiler packages.
package api

import (
	"context"
	"net/http"
	"time"

	"formbase/internal/query"
	"formbase/pkg/model"
)

const DefaultRequestTimeout = 30 * time.Second

// Service is the engine contract the handlers need.
type Service interface {
	ListResponses(ctx context.Context, p query.ListParams) (*model.Page, error)
	CreateResponse(ctx context.Context, formID string, data map[string]interface{}, clientToken string) (*model.Response, error)
}

// Server serves the response listing and ingest endpoints.
type Server struct {
	engine Service
	mux    *http.ServeMux
}

// NewServer creates the REST server over the given engine.
func NewServer(engine Service) *Server {
	s := &Server{
		engine: engine,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/forms/{formId}/responses", withTimeout(s.handleListResponses, DefaultRequestTimeout))
	s.mux.HandleFunc("POST /api/v1/forms/{formId}/responses", withTimeout(s.handleCreateResponse, DefaultRequestTimeout))
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}
