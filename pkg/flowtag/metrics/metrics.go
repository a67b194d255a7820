// Package metrics exposes prometheus collectors for tagging and flow
// resolution. Collectors live on a private registry so several engines can
// coexist in one process.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels.
const (
	OpTag     = "tag"
	OpBatch   = "tag_batch"
	OpResolve = "resolve"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics groups every collector. A nil *Metrics records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	cache      *prometheus.CounterVec
	tags       prometheus.Histogram
	candidates prometheus.Histogram
}

// New registers the collectors under namespace on a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "flowtag"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by operation.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Tag cache lookups by result.",
		}, []string{"result"}),
		tags: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tags_per_text",
			Help:      "Tags produced per tagged text.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_per_resolution",
			Help:      "Candidate flows per resolution.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.cache, m.tags, m.candidates)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one finished operation.
func (m *Metrics) ObserveRequest(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// CacheLookup records a cache lookup result.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

// ObserveTags records how many tags one text produced.
func (m *Metrics) ObserveTags(n int) {
	if m == nil {
		return
	}
	m.tags.Observe(float64(n))
}

// ObserveCandidates records how many flows one resolution considered.
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}
