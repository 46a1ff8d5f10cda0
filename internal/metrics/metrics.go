// Package metrics exposes Prometheus collectors for the calendar backend.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/almanac/internal/apperr"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	cacheLookups  *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	aggregate     prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "almanac_holiday_cache_lookups_total",
			Help: "Holiday cache lookups by result (hit or miss).",
		}, []string{"result"}),
		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "almanac_holiday_fetch_failures_total",
			Help: "Failed remote holiday fetches by kind (network, parse, other).",
		}, []string{"kind"}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "almanac_event_mutations_total",
			Help: "Successful personal event mutations by operation.",
		}, []string{"op"}),
		aggregate: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "almanac_aggregate_duration_seconds",
			Help:    "Time spent building the event collection of a year.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// CacheLookup counts a holiday cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// FetchFailure counts a failed holiday fetch, classified by err.
func (m *Metrics) FetchFailure(err error) {
	if m == nil {
		return
	}
	kind := "other"
	switch {
	case errors.Is(err, apperr.ErrNetwork):
		kind = "network"
	case errors.Is(err, apperr.ErrParse):
		kind = "parse"
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}

// Mutation counts a successful create, update or delete.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op).Inc()
}

// ObserveAggregate records how long one year aggregation took.
func (m *Metrics) ObserveAggregate(d time.Duration) {
	if m == nil {
		return
	}
	m.aggregate.Observe(d.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
