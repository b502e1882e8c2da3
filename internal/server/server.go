package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/lazypower/llamadrama/internal/reminder"
	"github.com/lazypower/llamadrama/internal/store"
)

// Server is the llamadrama HTTP API server.
type Server struct {
	db      *store.DB
	checker *reminder.Checker
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. checker may be nil, in which case on-demand
// reminder checks are unavailable.
func New(db *store.DB, checker *reminder.Checker, version string) *Server {
	s := &Server{
		db:      db,
		checker: checker,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/members", s.handleListMembers)
		r.Post("/members", s.handleCreateMember)
		r.Route("/members/{memberID}", func(r chi.Router) {
			r.Get("/", s.handleGetMember)
			r.Patch("/", s.handleRenameMember)
			r.Delete("/", s.handleDeleteMember)
			r.Get("/notes", s.handleListNotes)
			r.Post("/notes", s.handleAddNote)
			r.Get("/cadence", s.handleCadence)
			r.Get("/trends", s.handleTrends)
		})

		r.Put("/notes/{noteID}", s.handleUpdateNote)
		r.Delete("/notes/{noteID}", s.handleDeleteNote)

		r.Get("/overdue", s.handleOverdue)
		r.Post("/reminders/check", s.handleReminderCheck)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"uptime":   time.Since(s.started).Seconds(),
		"db":       dbOK,
		"db_path":  s.db.Path,
		"reminder": s.checker != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrMemberNotFound), errors.Is(err, store.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrEmptyName),
		errors.Is(err, store.ErrEmptyContent),
		errors.Is(err, store.ErrInvalidSentiment),
		errors.Is(err, store.ErrInvalidExport):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}
