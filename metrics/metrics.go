// Package metrics exposes solver activity as Prometheus metrics on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the solver metrics. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry

	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	available *prometheus.GaugeVec
	fallbacks *prometheus.CounterVec
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	solves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Total number of tree computations by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time of one tree computation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"backend"},
	)

	available := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_available",
			Help:      "1 when the last probe of the backend succeeded, 0 otherwise",
		},
		[]string{"backend"},
	)

	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Total number of solves handed to the next backend of a chain",
		},
		[]string{"from", "to"},
	)

	registry.MustRegister(solves, duration, available, fallbacks)

	return &Collector{
		registry:  registry,
		solves:    solves,
		duration:  duration,
		available: available,
		fallbacks: fallbacks,
	}
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSolve records one computation.
func (c *Collector) ObserveSolve(backend, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.solves.WithLabelValues(backend, outcome).Inc()
	c.duration.WithLabelValues(backend).Observe(d.Seconds())
}

// SetAvailable records a probe result.
func (c *Collector) SetAvailable(backend string, ok bool) {
	if c == nil {
		return
	}
	v := 0.0
	if ok {
		v = 1
	}
	c.available.WithLabelValues(backend).Set(v)
}

// ObserveFallback records a hand-over between two backends.
func (c *Collector) ObserveFallback(from, to string) {
	if c == nil {
		return
	}
	c.fallbacks.WithLabelValues(from, to).Inc()
}
