// Package server implements the Arbor HTTP API.
//
// The API mirrors the interactive editor's needs: CRUD over persons,
// marriages, and parent-child links, tree-level operations (save, load,
// undo, redo), automatic layout, and diagram export. All request and
// response bodies are JSON except export, which streams the rendered
// artifact.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arbormap/arbor/pkg/cache"
	"github.com/arbormap/arbor/pkg/config"
	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/store"
	"github.com/arbormap/arbor/pkg/tree"
)

// Persister saves and loads named trees. Implemented by file and mongo
// backends via the adapters below.
type Persister interface {
	Save(ctx context.Context, name string, t *tree.Tree) (string, error)
	Load(ctx context.Context, name string) (*tree.Tree, error)
	List(ctx context.Context) ([]store.FileInfo, error)
}

// Server is the HTTP API for a single family tree.
type Server struct {
	store    *store.Store
	files    Persister
	autosave *store.FileStore // nil disables autosave
	cache    cache.Cache
	logger   *log.Logger
	defaults config.LayoutConfig
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPersister sets the named-tree persistence backend.
func WithPersister(p Persister) Option {
	return func(s *Server) { s.files = p }
}

// WithAutosave persists the live tree to fs after each mutation.
func WithAutosave(fs *store.FileStore) Option {
	return func(s *Server) { s.autosave = fs }
}

// WithCache sets the artifact cache used by the export endpoint.
func WithCache(c cache.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithLogger sets the request and operation logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLayoutDefaults sets the layout parameters applied when a request
// leaves them unset.
func WithLayoutDefaults(lc config.LayoutConfig) Option {
	return func(s *Server) { s.defaults = lc }
}

// New creates a Server around the given store.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:  st,
		cache:  cache.NewNullCache(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		defaults: config.LayoutConfig{
			Direction: "top-down",
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/persons", func(r chi.Router) {
			r.Post("/", s.handleCreatePerson)
			r.Get("/", s.handleListPersons)
			r.Patch("/positions", s.handleUpdatePositions)
			r.Get("/{personID}", s.handleGetPerson)
			r.Put("/{personID}", s.handleUpdatePerson)
			r.Patch("/{personID}/position", s.handleUpdatePosition)
			r.Delete("/{personID}", s.handleDeletePerson)
		})

		r.Post("/marriages", s.handleCreateMarriage)
		r.Get("/marriages", s.handleListMarriages)
		r.Delete("/marriages/{marriageID}", s.handleDeleteMarriage)

		r.Post("/children", s.handleAddChild)
		r.Get("/children", s.handleListChildren)
		r.Delete("/children/{parentID}/{childID}", s.handleRemoveChild)

		r.Route("/tree", func(r chi.Router) {
			r.Get("/", s.handleGetTree)
			r.Post("/new", s.handleNewTree)
			r.Post("/save", s.handleSaveTree)
			r.Post("/load", s.handleLoadTree)
			r.Get("/files", s.handleListFiles)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/layout", s.handleLayout)
			r.Post("/export", s.handleExport)
		})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

// requestLogger logs each request with method, path, status, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}

// persistLive autosaves the current tree when autosave is configured.
// Autosave failures are logged, never surfaced: losing an autosave must
// not fail the mutation that triggered it.
func (s *Server) persistLive() {
	if s.autosave == nil {
		return
	}
	if err := s.autosave.SaveLive(s.store.Snapshot()); err != nil {
		s.logger.Error("autosave failed", "err", err)
	}
}

// =============================================================================
// JSON helpers
// =============================================================================

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps structured error codes onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch arberrors.GetCode(err) {
	case arberrors.ErrCodePersonNotFound,
		arberrors.ErrCodeMarriageNotFound,
		arberrors.ErrCodeRelationNotFound,
		arberrors.ErrCodeFileNotFound,
		arberrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case arberrors.ErrCodeRelationExists,
		arberrors.ErrCodeNothingToUndo,
		arberrors.ErrCodeNothingToRedo,
		arberrors.ErrCodeInvalidInput,
		arberrors.ErrCodeInvalidFormat,
		arberrors.ErrCodeInvalidDirection:
		status = http.StatusBadRequest
	}
	respondJSON(w, status, map[string]string{"detail": arberrors.UserMessage(err)})
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return arberrors.Wrap(arberrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// badRequest builds an INVALID_INPUT error.
func badRequest(format string, args ...any) error {
	return arberrors.New(arberrors.ErrCodeInvalidInput, format, args...)
}
