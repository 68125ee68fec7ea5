package poller

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a [Poller].
type Option func(*options) error

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	now        func() time.Time
}

// WithLogger sets the logger for poll outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithRegisterer registers the poll metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registerer cannot be nil")
		}
		o.registerer = reg
		return nil
	}
}

// WithClock overrides the time stamped on poll results.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
