// Package api exposes the upload, query and clear triggers over HTTP.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pdfrag/internal/extractor"
	"pdfrag/internal/service"
)

// Backend is the subset of the session service the API needs.
type Backend interface {
	CreateSession(ctx context.Context, src extractor.PageSource, name string) (*service.Session, error)
	Ask(ctx context.Context, sess *service.Session, query string, emit func(service.Update) error) error
}

// Document is an uploaded PDF ready for extraction.
type Document interface {
	extractor.PageSource
	Close() error
}

// UploadOpener turns an uploaded file into a Document.
type UploadOpener func(r io.Reader) (Document, error)

// FromUpload opens an uploaded PDF with the extractor.
func FromUpload(r io.Reader) (Document, error) {
	doc, err := extractor.FromUpload(r)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Options configure the server.
type Options struct {
	MaxUploadBytes int64
	// APIKey, when set, is required as a bearer token on /api routes.
	APIKey string
	Open   UploadOpener
}

// Server is the HTTP API server for pdfrag.
type Server struct {
	router  chi.Router
	backend Backend
	open    UploadOpener
	log     *slog.Logger
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*service.Session
}

// NewServer creates and configures the HTTP server.
func NewServer(backend Backend, log *slog.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.Open == nil {
		opts.Open = FromUpload
	}
	s := &Server{
		backend:  backend,
		open:     opts.Open,
		log:      log,
		opts:     opts,
		sessions: make(map[string]*service.Session),
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

	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey, s.log))
		}
		r.Post("/api/sessions", s.handleUpload)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Post("/api/sessions/{sessionID}/query", s.handleQuery)
		r.Delete("/api/sessions/{sessionID}", s.handleClear)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": n})
}

// Close releases every open session.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*service.Session)
	s.mu.Unlock()

	var firstErr error
	for _, sess := range sessions {
		if err := sess.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) session(id string) *service.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Server) putSession(sess *service.Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

func (s *Server) removeSession(id string) *service.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	return sess
}
