package poller

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type metrics struct {
	polls       *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func newMetrics() *metrics {
	m := metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecoal",
			Name:      "polls_total",
			Help:      "Register polls by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ecoal",
			Name:      "poll_duration_seconds",
			Help:      "Time taken to read every polled register.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecoal",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll.",
		}),
	}

	// Both labels exist from the start so rate() works before the first failure.
	m.polls.WithLabelValues(resultSuccess)
	m.polls.WithLabelValues(resultFailure)

	return &m
}

func (m *metrics) register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{m.polls, m.duration, m.lastSuccess} {
		errs = append(errs, reg.Register(c))
	}

	return errors.Join(errs...)
}
