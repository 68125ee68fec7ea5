package mux

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*options)

type options struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	globalMW []Middleware
	mw       []Middleware
}

type ordered struct {
	priority int
	fn       Middleware
}

// WithMiddleware sorts mw by the constructor that produced it. CORS and
// CSRF run for every request, before routing, so preflights and rejected
// origins never reach a handler. Logger, Errors, custom middleware and
// Panics run per route, in that order from the outside in.
//
// The constructor is read from the closure name, which the compiler may
// change when it inlines the constructor. Middleware it cannot name keeps
// the order given, so list them outermost first and keep Panics inside
// Errors; otherwise a recovered panic never reaches the error renderer.
func WithMiddleware(mw ...Middleware) Option {
	var global, route []ordered

	for _, m := range mw {
		switch name(m) {
		case "CORS":
			global = append(global, ordered{priority: 1, fn: m})
		case "CSRF":
			global = append(global, ordered{priority: 2, fn: m})
		case "Logger":
			route = append(route, ordered{priority: 3, fn: m})
		case "Errors":
			route = append(route, ordered{priority: 4, fn: m})
		case "Panics":
			route = append(route, ordered{priority: 100, fn: m})
		default:
			route = append(route, ordered{priority: 5, fn: m})
		}
	}

	return func(opts *options) {
		opts.globalMW = sorted(global)
		opts.mw = sorted(route)
	}
}

// WithTracer sets the tracer for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithLogger sets the logger for handler errors that escape middleware.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// Adapt converts an http.Handler into a Handler.
func Adapt(h http.Handler) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r.WithContext(ctx))
		return nil
	}
}

func sorted(in []ordered) []Middleware {
	slices.SortStableFunc(in, func(a, b ordered) int {
		return a.priority - b.priority
	})

	out := make([]Middleware, len(in))
	for i, v := range in {
		out[i] = v.fn
	}

	return out
}

// name returns the enclosing constructor of a middleware closure:
// ".../web/middleware.CORS.func1" yields "CORS".
func name(mw Middleware) string {
	fnName := runtime.FuncForPC(reflect.ValueOf(mw).Pointer()).Name()

	if i := strings.LastIndex(fnName, "/"); i >= 0 {
		fnName = fnName[i+1:]
	}

	parts := strings.Split(fnName, ".")
	if len(parts) >= 2 {
		return parts[1]
	}

	return fnName
}
