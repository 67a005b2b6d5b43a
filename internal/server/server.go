// Package server exposes conversion and evaluation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/meisai-dev/meisai/internal/classify"
	"github.com/meisai-dev/meisai/internal/config"
	"github.com/meisai-dev/meisai/internal/logger"
)

// Server holds the request-independent state shared by all handlers.
type Server struct {
	cfg        *config.Config
	classifier *classify.Classifier
	log        *slog.Logger
	limiter    *rate.Limiter
}

// New builds a Server. A nil classifier uses the built-in rules.
func New(cfg *config.Config, c *classify.Classifier, l *slog.Logger) *Server {
	if c == nil {
		c = classify.Default()
	}
	s := &Server{
		cfg:        cfg,
		classifier: c,
		log:        logger.WithComponent(l, "server"),
	}
	if rl := cfg.Server.RateLimit; rl.Burst > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Duration(rl.EveryMS)*time.Millisecond), rl.Burst)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/convert", s.handleConvert)
	r.Post("/evaluate", s.handleEvaluate)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info("server shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.cfg.Server.MaxUploadMB) << 20
}
