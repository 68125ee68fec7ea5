package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

var errCrossOrigin = errors.New("cross-origin request rejected")

// CSRF rejects cross-site state-changing requests, so a page open in the
// browser cannot change furnace setpoints. Safe methods always pass.
// It panics if a trusted origin is malformed.
func CSRF(logger *slog.Logger, trustedOrigins ...string) mux.Middleware {
	cop := http.NewCrossOriginProtection()
	cop.SetDenyHandler(denyHandler(logger))
	for _, origin := range trustedOrigins {
		if err := cop.AddTrustedOrigin(origin); err != nil {
			panic(err)
		}
	}

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			cop.Handler(next).ServeHTTP(w, r.WithContext(ctx))

			return err
		}

		return h
	}

	return m
}

func denyHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("csrf rejected", "method", r.Method, "path", r.URL.Path, "origin", r.Header.Get("Origin"))

		if err := web.RespondError(r.Context(), w, errs.New(http.StatusForbidden, errCrossOrigin)); err != nil {
			logger.Error("csrf respond", "error", err)
		}
	}
}
