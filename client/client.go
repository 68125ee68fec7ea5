package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/ecoalbridge/client/throttle"
)

// Client issues single-shot HTTP/1.0 GET requests over raw TCP.
// It holds no connections between calls and is safe for concurrent use.
type Client struct {
	dialer    Dialer
	timeout   time.Duration
	username  string
	password  string
	userAgent string
	throttle  *throttle.Throttle
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Build returns a [Client] configured by optFns.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		dialer:    &net.Dialer{},
		timeout:   DefaultTimeout,
		username:  DefaultUsername,
		password:  DefaultPassword,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer(""),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.dialer != nil {
		client.dialer = opts.dialer
	}
	if opts.timeout != nil {
		client.timeout = *opts.timeout
	}
	if opts.username != nil {
		client.username = *opts.username
		client.password = *opts.password
	}
	if opts.userAgent != "" {
		client.userAgent = opts.userAgent
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.throttle != nil {
		t, err := throttle.New(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		client.throttle = t
	}

	return client, nil
}

// Fetch parses rawURL and performs one GET against it. See [Client.FetchURL].
func (c *Client) Fetch(ctx context.Context, rawURL string, opts ...FetchOption) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	return c.FetchURL(ctx, u, opts...)
}

// FetchURL opens a fresh TCP connection to u's host, sends one HTTP/1.0
// GET, reads until the device closes the connection and parses what
// arrived. The connection is closed on every path.
//
// Failures are returned as [*Error]; a non-2xx status is not a failure.
func (c *Client) FetchURL(ctx context.Context, u *url.URL, opts ...FetchOption) (*Response, error) {
	var settings fetchOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	timeout := c.timeout
	if settings.timeout != nil {
		timeout = *settings.timeout
	}
	username, password := c.username, c.password
	if settings.username != nil {
		username, password = *settings.username, *settings.password
	}
	xo := DefaultXMLOptions()
	if settings.xml != nil {
		xo = *settings.xml
	}

	req, err := newRequest(u, username, password, timeout)
	if err != nil {
		return nil, fmt.Errorf("resolving request: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "legacy.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("server.address", req.host),
			attribute.Int("server.port", req.port),
			attribute.String("url.path", req.target),
		),
	)
	defer span.End()

	log := c.logger.With("request_id", uuid.NewString(), "target", req.String())

	resp, err := c.fetch(ctx, req, xo, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))

	return resp, nil
}

func (c *Client) fetch(ctx context.Context, req request, xo XMLOptions, log *slog.Logger) (*Response, error) {
	if err := c.throttle.Wait(ctx, req.String()); err != nil {
		return nil, newError(KindTimeout, req.String(), err)
	}

	start := time.Now()
	log.Debug("fetch started", "timeout", req.timeout.String())

	raw, err := newExchange(req, c.dialer, c.userAgent).run(ctx)
	if err != nil {
		log.Debug("fetch failed", "kind", KindOf(err).String(), "error", err, "since", time.Since(start).String())
		return nil, err
	}

	resp, err := parseResponse(raw, xo)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Target = req.String()
		}
		log.Debug("response rejected", "error", err, "bytes", len(raw))
		return nil, err
	}

	log.Debug("fetch complete", "status", resp.Status, "bytes", len(raw), "since", time.Since(start).String())

	return resp, nil
}
