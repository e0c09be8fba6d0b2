// Package metrics declares the Prometheus collectors for imports, catalog
// calls and reference rows.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctg_import_items_total",
			Help: "Games processed by the batch importer, by result",
		},
		[]string{"result"}, // "succeeded", "failed", "conflict"
	)

	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ctg_merge_duration_seconds",
			Help:    "Time spent merging catalog records into a canonical game",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctg_catalog_requests_total",
			Help: "Requests sent to external game catalogs",
		},
		[]string{"catalog", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctg_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ReferenceRowsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctg_reference_rows_created_total",
			Help: "Genre, platform and requirement rows created on first encounter",
		},
		[]string{"kind"},
	)
)

// ObserveMerge records how long a merge took.
func ObserveMerge(start time.Time) {
	MergeDuration.Observe(time.Since(start).Seconds())
}

// RecordCatalogRequest counts one catalog call. err == nil is "ok".
func RecordCatalogRequest(catalog string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CatalogRequests.WithLabelValues(catalog, result).Inc()
}
