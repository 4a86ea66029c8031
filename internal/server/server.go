// Package server exposes the assistant over HTTP: the execute and log
// endpoints, health and metrics, and the static web console.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/cityguide/internal/assistant"
	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/database"
	"github.com/edgard/cityguide/internal/logger"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// Executor runs user input through the assistant.
type Executor interface {
	Execute(ctx context.Context, input, userID string) (assistant.Result, error)
}

// LogSource provides the buffered log entries.
type LogSource interface {
	Entries() []logger.Entry
}

// Journal is the query journal read by the health and journal endpoints.
type Journal interface {
	Ping(ctx context.Context) error
	RecentQueries(ctx context.Context, userID string, limit int) ([]database.JournalEntry, error)
}

// Server is the HTTP front-end.
type Server struct {
	cfg     config.ServerConfig
	exec    Executor
	logs    LogSource
	journal Journal
	log     *slog.Logger
	http    *http.Server
}

// New creates a Server. journal may be nil.
func New(cfg config.ServerConfig, exec Executor, logs LogSource, journal Journal, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		cfg:     cfg,
		exec:    exec,
		logs:    logs,
		journal: journal,
		log:     log.With("component", "server"),
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Post("/execute", s.handleExecute)
		r.Get("/logs", s.handleLogs)
		if s.journal != nil {
			r.Get("/journal", s.handleJournal)
		}
	})

	if s.cfg.StaticDir != "" {
		r.Get("/*", staticHandler(s.cfg.StaticDir))
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.log.InfoContext(ctx, "HTTP server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultServerShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server...", "timeout", timeout)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.log.Info("HTTP server stopped.")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.journal.Ping(ctx); err != nil {
			s.log.WarnContext(ctx, "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	entries := s.logs.Entries()
	if entries == nil {
		entries = []logger.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

// handleJournal lists recent journal entries, optionally for one user.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.journal.RecentQueries(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to read journal", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read journal"})
		return
	}
	if entries == nil {
		entries = []database.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

// staticHandler serves files from dir, falling back to index.html for any
// path that is not a regular file.
func staticHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
