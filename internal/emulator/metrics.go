package emulator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lambdalocal"

// Metrics holds the emulator's collectors on a registry of its own.
type Metrics struct {
	Registry *prometheus.Registry

	// Invocations counts proxy invocations by HTTP method, response status and completion source
	Invocations *prometheus.CounterVec

	// InvocationDuration records handler latency in seconds
	InvocationDuration *prometheus.HistogramVec

	// AuthorizerDecisions counts authorizer outcomes: allow, deny, unauthorized, error
	AuthorizerDecisions *prometheus.CounterVec

	// RateLimited counts requests rejected by the rate limiter
	RateLimited prometheus.Counter

	// InFlight tracks invocations currently running
	InFlight prometheus.Gauge
}

// NewMetrics registers the emulator collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry: reg,
		Invocations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of proxy invocations",
			},
			[]string{"method", "status", "completed_by"},
		),
		InvocationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Handler latency in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		AuthorizerDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorizer_decisions_total",
				Help:      "Total number of authorizer decisions",
			},
			[]string{"decision"},
		),
		RateLimited: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
		InFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "invocations_in_flight",
				Help:      "Current number of invocations being processed",
			},
		),
	}
}
