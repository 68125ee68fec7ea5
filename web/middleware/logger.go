package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

// Logger logs the start and end of each request. Scrapes of the metrics
// and health routes are logged at debug so they do not drown the poll log.
func Logger(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.GetValues(ctx)

			target := r.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			level := slog.LevelInfo
			if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
				level = slog.LevelDebug
			}

			reqLog := log.With("trace_id", v.TraceID, "method", r.Method, "path", target, "remote_addr", r.RemoteAddr)
			reqLog.Log(ctx, level, "request started")

			err := handler(ctx, w, r)

			reqLog.Log(ctx, level, "request completed", "status_code", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}

		return h
	}

	return m
}
