// Package server exposes a session over a small JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/session"
)

// RewriterFunc resolves a profile name ("" for the default) to a Rewriter
// and the resolved profile name.
type RewriterFunc func(profile string) (rewrite.Rewriter, string, error)

// DirectionFunc resolves a 1-based saved direction.
type DirectionFunc func(n int) (string, error)

// Server is the HTTP API over one editing session.
type Server struct {
	router     chi.Router
	session    *session.Session
	rewriters  RewriterFunc
	directions DirectionFunc
	log        *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// NewServer creates and configures the HTTP server.
func NewServer(sess *session.Session, rewriters RewriterFunc, directions DirectionFunc, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		session:    sess,
		rewriters:  rewriters,
		directions: directions,
		log:        log,
		jobs:       map[string]*job{},
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", s.handleDocument)
		r.Post("/reload", s.handleReload)

		r.Get("/chapters", s.handleListChapters)
		r.Get("/chapters/{index}", s.handleGetChapter)
		r.Post("/locate", s.handleLocate)

		r.Post("/delete", s.handleDelete)
		r.Post("/rewrite", s.handleRewrite)
		r.Get("/rewrite/{id}", s.handleRewriteStatus)
		r.Get("/rewrite/{id}/stream", s.handleRewriteStream)
		r.Post("/apply", s.handleApply)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
