// Package poller reads controller registers on a fixed interval and hands
// each result to a Sink.
//
// A poll that fails is logged and recorded; the loop keeps running until
// its context ends. Ticks that arrive while a poll is still in flight are
// dropped rather than queued.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwoolhether/ecoalbridge/ecoal"
)

var ErrInvalidInterval = errors.New("poll interval must be greater than zero")

// Source produces one full register read.
type Source interface {
	FetchRegisters(ctx context.Context) (ecoal.Registers, error)
}

// Sink receives the outcome of every poll.
type Sink interface {
	Publish(regs ecoal.Registers, at time.Time)
	Fail(err error, at time.Time)
}

// Poller drives a Source on an interval.
type Poller struct {
	source   Source
	sink     Sink
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	metrics  *metrics
}

// New builds a Poller. Metrics are registered with the registerer given
// by [WithRegisterer], if any.
func New(source Source, sink Sink, interval time.Duration, optFns ...Option) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	p := Poller{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   slog.Default(),
		now:      time.Now,
		metrics:  newMetrics(),
	}

	if opts.logger != nil {
		p.logger = opts.logger
	}
	if opts.now != nil {
		p.now = opts.now
	}
	if opts.registerer != nil {
		if err := p.metrics.register(opts.registerer); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	return &p, nil
}

// Run polls immediately and then once per interval until ctx is done.
// It always returns nil; poll failures go to the Sink.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval)
	defer p.logger.Info("poller stopped")

	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs a single read and reports it to the Sink. It returns the
// read error, if any, after it has been recorded.
func (p *Poller) Poll(ctx context.Context) error {
	start := time.Now()
	regs, err := p.source.FetchRegisters(ctx)
	p.metrics.duration.Observe(time.Since(start).Seconds())

	at := p.now()

	if err != nil {
		if ctx.Err() != nil {
			// Shutdown, not a device fault.
			return err
		}
		p.metrics.polls.WithLabelValues(resultFailure).Inc()
		p.logger.Warn("poll failed", "error", err)
		p.sink.Fail(err, at)
		return err
	}

	p.metrics.polls.WithLabelValues(resultSuccess).Inc()
	p.metrics.lastSuccess.Set(float64(at.Unix()))
	p.logger.Debug("poll complete", "registers", len(regs))
	p.sink.Publish(regs, at)

	return nil
}
