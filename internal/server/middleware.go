package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/theirongolddev/thriftify/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// requestLogger attaches a request-scoped logger and logs each response.
func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := logger.L.With(slog.String("requestID", uuid.NewString()))
		ctx := logger.ToContext(r.Context(), reqLogger)

		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func (s *Service) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			logger.FromContext(r.Context()).Warn("rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
