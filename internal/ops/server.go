// Package ops serves the operational HTTP endpoints: health, metrics, the
// cron-style sweep trigger, and webhook registration.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"janitorbot/internal/logger"
)

// Janitor triggers an expiry sweep and reports how many users were removed.
type Janitor interface {
	RunSweep(ctx context.Context) (int, error)
}

// WebhookRegistrar registers a webhook URL with the Bot API.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, url string) error
}

// Options configures the ops server.
type Options struct {
	Listen string

	Janitor   Janitor
	Registrar WebhookRegistrar

	// Token and PublicHost build the registration URL for /setwebhook.
	Token      string
	PublicHost string

	// Metrics serves GET /metrics when set.
	Metrics http.Handler
}

// Server is the operational HTTP server.
type Server struct {
	opts Options
	srv  *http.Server
}

// NewServer builds the ops server with its routes mounted.
func NewServer(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Get("/cron", s.handleCron)
	r.Get("/setwebhook", s.handleSetWebhook)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	s.srv = &http.Server{
		Addr:              opts.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until the context is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Ops.Info("ops server listening",
			slog.String("event", "ops.listen"),
			slog.String("addr", s.opts.Listen),
		)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCron triggers load, sweep, save. The caller always gets an
// acknowledgment; sweep failures are logged, not surfaced.
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	removed, err := s.opts.Janitor.RunSweep(r.Context())
	if err != nil {
		logger.Ops.Warn("cron sweep failed",
			slog.String("event", "ops.cron"),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Ops.Info("cron sweep done",
			slog.String("event", "ops.cron"),
			slog.Int("removed", removed),
		)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cron done"})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	if s.opts.Registrar == nil || s.opts.PublicHost == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "webhook registration not configured"})
		return
	}
	url := fmt.Sprintf("https://%s/bot%s", s.opts.PublicHost, s.opts.Token)
	if err := s.opts.Registrar.SetWebhook(r.Context(), url); err != nil {
		logger.Ops.Error("webhook registration failed",
			slog.String("event", "ops.setwebhook"),
			slog.String("err", err.Error()),
		)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "webhook registration failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"webhook": url})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
