package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/ecoalbridge/client/throttle"
)

// Dialer opens the TCP connection for a single exchange.
// *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	timeout   *time.Duration
	username  *string
	password  *string
	userAgent string
	throttle  *throttle.Config
	dialer    Dialer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// WithTimeout sets the default budget for a whole exchange, from dial to
// end-of-stream. The default is [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		o.timeout = &d
		return nil
	}
}

// WithCredentials sets the Basic-Auth credentials used by every fetch
// that does not override them with [WithBasicAuth].
func WithCredentials(username, password string) Option {
	return func(o *options) error {
		o.username = &username
		o.password = &password
		return nil
	}
}

// WithUserAgent replaces [DefaultUserAgent] on all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		if header == "" {
			return errors.New("user agent must not be empty")
		}
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting of fetches with the given
// requests per second and burst capacity. Time spent waiting for a token
// is not counted against the fetch timeout; a context that ends during the
// wait fails the fetch with KindTimeout before any connection is made.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithDialer replaces the default *net.Dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("dialer must not be nil")
		}
		o.dialer = d
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer makes the [Client] record one span per fetch.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// FetchOption is a functional option for [Client.Fetch].
type FetchOption func(*fetchOpts) error

type fetchOpts struct {
	timeout  *time.Duration
	username *string
	password *string
	xml      *XMLOptions
}

// WithFetchTimeout overrides the client's timeout for a single fetch.
func WithFetchTimeout(d time.Duration) FetchOption {
	return func(o *fetchOpts) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		o.timeout = &d
		return nil
	}
}

// WithBasicAuth overrides the client's credentials for a single fetch.
func WithBasicAuth(username, password string) FetchOption {
	return func(o *fetchOpts) error {
		o.username = &username
		o.password = &password
		return nil
	}
}

// WithXMLOptions sets how the response body is turned into structured data
// by [Response.Structured] and [Decode]. Start from [DefaultXMLOptions].
func WithXMLOptions(xo XMLOptions) FetchOption {
	return func(o *fetchOpts) error {
		o.xml = &xo
		return nil
	}
}
