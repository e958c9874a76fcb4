// Package metrics exposes search and catalog counters for Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tour-planner/internal/catalog"
	"tour-planner/internal/engine"
)

// Search outcomes recorded in tourplan_searches_total.
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)

// Metrics owns a private registry so tests and embedding programs do not
// collide on the global one.
type Metrics struct {
	reg *prometheus.Registry

	searches *prometheus.CounterVec
	nodes    prometheus.Histogram
	duration prometheus.Histogram
	tours    prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tourplan_searches_total",
				Help: "Package searches by outcome.",
			},
			[]string{"outcome"},
		),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tourplan_search_nodes",
			Help:    "Search-tree nodes visited per completed search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tourplan_search_duration_seconds",
			Help:    "Wall time of completed searches.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		tours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tourplan_catalog_tours",
			Help: "Tours in the currently loaded catalog.",
		}),
	}
	m.reg.MustRegister(m.searches, m.nodes, m.duration, m.tours)
	return m
}

// ObserveSearch records one search. res is ignored when err is non-nil.
func (m *Metrics) ObserveSearch(res *engine.Result, err error) {
	if err != nil {
		m.searches.WithLabelValues(Outcome(err)).Inc()
		return
	}
	outcome := OutcomeOK
	if len(res.Tours) == 0 {
		outcome = OutcomeEmpty
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.nodes.Observe(float64(res.Stats.NodesVisited))
	m.duration.Observe(res.Stats.Elapsed.Seconds())
}

// ObserveBatch records a batch; a failed batch counts once under its error.
func (m *Metrics) ObserveBatch(results []*engine.Result, err error) {
	if err != nil {
		m.ObserveSearch(nil, err)
		return
	}
	for _, r := range results {
		m.ObserveSearch(r, nil)
	}
}

// SetCatalog updates the catalog gauge.
func (m *Metrics) SetCatalog(cat *catalog.Catalog) {
	m.tours.Set(float64(cat.Stats().Tours))
}

// Outcome maps a search error to its label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, engine.ErrInvalidInput):
		return OutcomeInvalid
	case errors.Is(err, engine.ErrSearchCancelled):
		return OutcomeCancelled
	}
	return OutcomeError
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
