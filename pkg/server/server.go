// Package server exposes the breakdown over HTTP: an HTML overlay page,
// a JSON report API, and a liveness endpoint.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/perfbreak/go-pagetiming/pkg/breakdown"
	"github.com/perfbreak/go-pagetiming/pkg/config"
	pterrors "github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/probe"
	"github.com/perfbreak/go-pagetiming/pkg/render"
	"github.com/perfbreak/go-pagetiming/pkg/source"
)

// Capture produces a timing source for the configured target. It is a
// field so tests can substitute a canned source for the live probe.
type Capture func(ctx context.Context, target string) (source.Source, error)

// Server serves breakdown pages for a configured target URL.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	capture Capture
}

// New constructs a Server probing cfg.TargetURL on each request.
func New(cfg config.Config, logger *slog.Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}
	s.capture = func(ctx context.Context, target string) (source.Source, error) {
		return probe.Fetch(ctx, target, probe.Options{
			Timeout:     cfg.ProbeTimeout,
			Protocol:    cfg.Protocol,
			InsecureTLS: cfg.InsecureTLS,
		})
	}
	return s
}

// SetCapture replaces the capture function. Intended for tests.
func (s *Server) SetCapture(c Capture) {
	s.capture = c
}

// Router registers the HTTP routes and middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/api/report", s.handleReport)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("server listening", "addr", s.cfg.ListenAddr, "target", s.cfg.TargetURL)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// compute runs one capture-and-compute cycle for the configured target.
// The render delay precedes the capture: a probe snapshots everything it
// will ever see, so deferring only helps if the wait happens first.
func (s *Server) compute(ctx context.Context) (*breakdown.Report, error) {
	if d := s.cfg.RenderDelay; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	src, err := s.capture(ctx, s.cfg.TargetURL)
	if err != nil {
		return nil, err
	}
	report, err := breakdown.Compute(src)
	if err != nil {
		return nil, err
	}
	report.ApplyPhaseColors(s.cfg.PhaseColors)
	return report, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderer := render.NewHTMLRenderer(w)
	renderer.Title = s.cfg.TargetURL

	report, err := s.compute(r.Context())
	if err != nil {
		if pterrors.IsUnsupported(err) {
			// Degrade to the static notice, same as the overlay would.
			_ = renderer.Render(nil)
			return
		}
		s.logger.Error("breakdown failed", "target", s.cfg.TargetURL, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := renderer.Render(report); err != nil {
		s.logger.Error("render failed", "error", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.compute(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if pterrors.IsUnsupported(err) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
