// Package mux routes status API requests through error-returning handlers
// and ordered middleware.
package mux

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// App owns the route table and the middleware stacks.
type App struct {
	mux      *http.ServeMux
	globalMW []Middleware
	mw       []Middleware
	group    string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Handler is an http handler that reports failure by returning an error.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware wraps a Handler.
type Middleware func(handler Handler) Handler

// New creates an App. A no-op tracer and slog.Default are used unless
// overridden.
func New(optFns ...Option) *App {
	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("")
	}

	return &App{
		mux:      http.NewServeMux(),
		globalMW: opts.globalMW,
		mw:       opts.mw,
		logger:   opts.logger,
		tracer:   opts.tracer,
	}
}

// ServeHTTP runs the global middleware, then dispatches to the route.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveHTTP := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		a.mux.ServeHTTP(w, r.WithContext(ctx))
		return nil
	}
	wrapped := wrap(a.globalMW, serveHTTP)

	if err := wrapped(r.Context(), w, r); err != nil {
		a.logger.Error("serve http", "error", err)
	}
}

// Mount returns an App sharing the route table whose paths are prefixed
// with subRoute.
func (a *App) Mount(subRoute string) *App {
	return &App{
		mux:      a.mux,
		globalMW: a.globalMW,
		mw:       slices.Clone(a.mw),
		logger:   a.logger,
		group:    strings.Trim(subRoute, "/"),
		tracer:   a.tracer,
	}
}

// Use appends route middleware for routes registered afterwards.
func (a *App) Use(mw ...Middleware) {
	a.mw = append(a.mw, mw...)
}

// Get registers fn for GET path.
func (a *App) Get(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, fn, mw...)
}

// Post registers fn for POST path.
func (a *App) Post(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, fn, mw...)
}

// Handle registers handler for method and path, inside the route
// middleware, a server span and the request base values.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrap(mw, handler)
	handler = wrap(a.mw, handler)

	route := a.route(path)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.startSpan(w, r, route)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.NewString()
		}

		v := BaseValues{
			TraceID: traceID,
			Now:     time.Now().UTC(),
			Tracer:  a.tracer,
		}

		r = r.WithContext(setValues(ctx, &v))

		if err := handler(r.Context(), w, r); err != nil {
			a.logger.Error("handle", "route", route, "error", err)
		}

		if v.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", v.StatusCode))
		}
	}

	a.mux.HandleFunc(method+" "+route, h)
}

// HandleRaw registers a plain http.Handler, such as the metrics exporter.
func (a *App) HandleRaw(method, path string, handler http.Handler, mw ...Middleware) {
	a.Handle(method, path, Adapt(handler), mw...)
}

func (a *App) route(path string) string {
	if a.group == "" {
		return path
	}

	return "/" + a.group + path
}

func (a *App) startSpan(w http.ResponseWriter, r *http.Request, route string) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	ctx, span := a.tracer.Start(ctx, r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.request.method", r.Method),
		attribute.String("http.route", route),
		attribute.String("url.path", r.URL.Path),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

// wrap applies mw so that mw[0] runs first.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}
