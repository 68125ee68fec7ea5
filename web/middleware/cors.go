package middleware

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

const allowMethods = "GET, POST, OPTIONS"

// CORS answers cross-origin requests from allowedOrigins, typically a Home
// Assistant dashboard. "*" allows any origin and entries may use path.Match
// wildcards. Requests without an Origin header pass through untouched.
func CORS(allowedOrigins []string, allowedHeaders ...string) mux.Middleware {
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Authorization",
			"Content-Type",
			"Accept",
			"X-Requested-With",
		}
	}

	originAllowed := CheckOriginFunc(allowedOrigins)
	headers := strings.Join(allowedHeaders, ", ")

	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return handler(ctx, w, r)
			}

			if !originAllowed(origin) {
				return web.RespondError(ctx, w, errs.New(http.StatusForbidden, fmt.Errorf("CORS origin[%s] not allowed", origin)))
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				return web.RespondJSON(ctx, w, http.StatusNoContent, nil)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// CheckOriginFunc returns a matcher for allowedOrigins. Entries may also
// be comma separated lists, as environment overrides deliver them.
func CheckOriginFunc(allowedOrigins []string) func(string) bool {
	allowed := make(map[string]bool)
	var wildcards []string

	for _, entry := range allowedOrigins {
		for o := range strings.SplitSeq(entry, ",") {
			o = strings.TrimSpace(o)
			switch {
			case o == "":
			case o == "*":
				allowed["*"] = true
			case strings.Contains(o, "*"):
				wildcards = append(wildcards, o)
			default:
				allowed[o] = true
			}
		}
	}
	allowAll := allowed["*"]

	return func(origin string) bool {
		if allowAll || allowed[origin] {
			return true
		}
		for _, pattern := range wildcards {
			if ok, err := path.Match(pattern, origin); ok && err == nil {
				return true
			}
		}
		return false
	}
}
