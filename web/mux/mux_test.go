package mux_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
	"github.com/adamwoolhether/ecoalbridge/web/middleware"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func ok(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.RespondJSON(ctx, w, http.StatusOK, map[string]string{"route": r.Pattern})
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	return resp, string(body)
}

func TestApp_Methods(t *testing.T) {
	app := mux.New()
	app.Get("/health", ok)
	app.Post("/api/auto-mode", ok)

	srv := httptest.NewServer(app)
	defer srv.Close()

	tests := map[string]struct {
		method string
		path   string
		want   int
	}{
		"get":          {method: http.MethodGet, path: "/health", want: http.StatusOK},
		"post":         {method: http.MethodPost, path: "/api/auto-mode", want: http.StatusOK},
		"wrong method": {method: http.MethodPost, path: "/health", want: http.StatusMethodNotAllowed},
		"unknown":      {method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, srv.URL+tc.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s: %v", tc.method, tc.path, err)
			}
			resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestApp_Mount(t *testing.T) {
	app := mux.New()
	api := app.Mount("/api/")
	api.Get("/registers/{tid}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		tid, err := web.Param(r, "tid")
		if err != nil {
			return err
		}
		return web.RespondJSON(ctx, w, http.StatusOK, map[string]string{"tid": tid})
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/api/registers/tkot_value")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if body != `{"tid":"tkot_value"}` {
		t.Fatalf("body = %s", body)
	}

	if resp, _ := get(t, srv.URL+"/registers/tkot_value"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unprefixed status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestApp_MiddlewareOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) mux.Middleware {
		return func(handler mux.Handler) mux.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return handler(ctx, w, r)
			}
		}
	}

	app := mux.New(mux.WithMiddleware(middleware.CORS([]string{"*"}), record("app")))
	app.Use(record("use"))
	app.Get("/ordered", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return ok(ctx, w, r)
	}, record("route"))

	srv := httptest.NewServer(app)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ordered", nil)
	req.Header.Set("Origin", "http://homeassistant.local:8123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()

	want := []string{"app", "use", "route", "handler"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://homeassistant.local:8123" {
		t.Fatalf("CORS should run globally, Access-Control-Allow-Origin = %q", got)
	}
}

func TestApp_ContextValues(t *testing.T) {
	app := mux.New()

	vals := make(chan mux.BaseValues, 1)
	app.Get("/ctx", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		err := ok(ctx, w, r)
		vals <- *mux.GetValues(ctx)
		return err
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	get(t, srv.URL+"/ctx")
	got := <-vals

	if got.TraceID == "" || got.Now.IsZero() || got.Tracer == nil {
		t.Fatalf("base values not populated: %+v", got)
	}
	if got.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want %d", got.StatusCode, http.StatusOK)
	}
}

func TestApp_HandleRaw(t *testing.T) {
	app := mux.New()
	app.HandleRaw(http.MethodGet, "/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ecoal_polls_total 1\n")
	}))

	srv := httptest.NewServer(app)
	defer srv.Close()

	if _, body := get(t, srv.URL+"/metrics"); body != "ecoal_polls_total 1\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestApp_UnhandledErrorLogged(t *testing.T) {
	var buf syncBuffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := mux.New(mux.WithLogger(log))
	app.Get("/err", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("store unavailable")
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	get(t, srv.URL+"/err")

	if !strings.Contains(buf.String(), "store unavailable") || !strings.Contains(buf.String(), "route=/err") {
		t.Fatalf("log missing handler error: %s", buf.String())
	}
}

func TestApp_FullStack(t *testing.T) {
	var buf syncBuffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	app := mux.New(
		mux.WithLogger(log),
		mux.WithMiddleware(middleware.Errors(log), middleware.Logger(log), middleware.Panics()),
	)
	app.Get("/ok", ok)
	app.Get("/bad", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.New(http.StatusNotFound, errors.New("register not polled"))
	})
	app.Get("/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})

	srv := httptest.NewServer(app)
	defer srv.Close()

	tests := map[string]struct {
		path     string
		wantCode int
		wantBody string
	}{
		"ok":    {path: "/ok", wantCode: http.StatusOK, wantBody: `{"route":"GET /ok"}`},
		"error": {path: "/bad", wantCode: http.StatusNotFound, wantBody: `{"success":false,"code":404,"error":"register not polled"}`},
		"panic": {path: "/panic", wantCode: http.StatusInternalServerError, wantBody: `{"success":false,"code":500,"error":"Internal Server Error"}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resp, body := get(t, srv.URL+tc.path)
			if resp.StatusCode != tc.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantCode)
			}
			if body != tc.wantBody {
				t.Fatalf("body = %s, want %s", body, tc.wantBody)
			}
		})
	}

	if !strings.Contains(buf.String(), `"trace_id"`) {
		t.Fatalf("logs should carry the trace id: %s", buf.String())
	}
}
