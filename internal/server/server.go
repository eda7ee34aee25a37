// Package server exposes the scoring pipeline over a local HTTP API, used by
// the capture frontend to push frames and by dashboards to read state.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/dispatch"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/tracker"
)

// Server wires the pipeline, persistence, and dispatcher behind HTTP handlers.
type Server struct {
	cfg        *config.Config
	pipeline   *tracker.Pipeline
	db         *store.DB
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger
}

// New creates a server around an existing pipeline and store. dispatcher may
// be nil, in which case intervention events are only returned to callers.
func New(cfg *config.Config, p *tracker.Pipeline, db *store.DB, d *dispatch.Dispatcher, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		pipeline:   p,
		db:         db,
		dispatcher: d,
		log:        log,
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/frame", s.handleFrame)
		r.Post("/score", s.handleSubmitScore)
		r.Get("/score", s.handleGetScore)

		r.Post("/calibrate", s.handleCalibrate)

		r.Get("/session", s.handleSession)
		r.Post("/session/reset", s.handleSessionReset)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}/report", s.handleSessionReport)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
