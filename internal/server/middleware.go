package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/meisai-dev/meisai/internal/logger"
)

// RequestIDHeader carries the per-request id back to the client.
const RequestIDHeader = "X-Request-Id"

// requestLogger tags each request with a uuid, stores a logger carrying it
// in the context, and logs the outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		reqLog := s.log.With(slog.String("request_id", requestID))
		ctx := logger.ToContext(r.Context(), reqLog)

		w.Header().Set(RequestIDHeader, requestID)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		reqLog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			logger.FromContext(r.Context()).Warn("rate limit exceeded", "path", r.URL.Path)
			writeError(w, r, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
