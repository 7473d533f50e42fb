package clog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type ChiOption func(*chiConfig)

type chiConfig struct {
	filter func(r *http.Request) bool
}

// WithChiFilter drops the log record for requests where filter returns false.
func WithChiFilter(filter func(r *http.Request) bool) ChiOption {
	return func(cfg *chiConfig) {
		cfg.filter = filter
	}
}

// SlogChiMiddleware logs one record per request on the plain HTTP routes
// (catalog, push subscriptions, health).
func SlogChiMiddleware(opts ...ChiOption) func(http.Handler) http.Handler {
	cfg := chiConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := ContextWithSlog(r.Context())
			AddAttributes(ctx, map[string]any{
				"method":    r.Method,
				"procedure": r.URL.Path,
			})
			if date := r.URL.Query().Get("date"); date != "" {
				AddAttribute(ctx, "date", date)
			}
			next.ServeHTTP(ww, r.WithContext(ctx))
			if cfg.filter != nil && !cfg.filter(r) {
				return
			}
			AddAttributes(ctx, map[string]any{
				"status":        ww.Status(),
				"bytes_written": ww.BytesWritten(),
				"duration":      time.Since(start),
			})
			slog.Log(ctx, HTTPStatusToLevel(ww.Status()), http.StatusText(ww.Status()))
		})
	}
}
