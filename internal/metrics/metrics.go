// Package metrics defines the Prometheus instruments for conversation turns,
// recommendation correlation and the HTTP API.
//
// All methods are nil-safe so components can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bodi"

// Turn outcomes.
const (
	OutcomeRendered = "rendered"
	OutcomeFailed   = "failed"
)

// Metrics holds every instrument.
type Metrics struct {
	// TurnsTotal counts finished turns. Labels: outcome (rendered, failed).
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures request-to-settle latency.
	TurnDurationSeconds prometheus.Histogram

	// ExtractedIdentifiers observes how many ids each reply carried.
	ExtractedIdentifiers prometheus.Histogram

	// DanglingIdentifiersTotal counts ids that did not resolve in the catalog.
	DanglingIdentifiersTotal prometheus.Counter

	// HTTPRequestsTotal counts API requests. Labels: route, status.
	HTTPRequestsTotal *prometheus.CounterVec

	// CatalogEntries reports the size of the loaded snapshot.
	CatalogEntries prometheus.Gauge
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "turns_total",
			Help:      "Conversation turns by outcome.",
		}, []string{"outcome"}),
		TurnDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "turn_duration_seconds",
			Help:      "Time from submit to settled turn.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		ExtractedIdentifiers: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "extracted_identifiers",
			Help:      "Listing identifiers extracted per assistant reply.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		DanglingIdentifiersTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "dangling_identifiers_total",
			Help:      "Identifiers dropped because the catalog did not hold them.",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "status"}),
		CatalogEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "entries",
			Help:      "Entries in the current catalog snapshot.",
		}),
	}
}

func (m *Metrics) ObserveTurn(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnDurationSeconds.Observe(seconds)
}

func (m *Metrics) ObserveExtraction(n int) {
	if m == nil {
		return
	}
	m.ExtractedIdentifiers.Observe(float64(n))
}

func (m *Metrics) AddDangling(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DanglingIdentifiersTotal.Add(float64(n))
}

func (m *Metrics) ObserveRequest(route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

func (m *Metrics) SetCatalogEntries(n int) {
	if m == nil {
		return
	}
	m.CatalogEntries.Set(float64(n))
}
