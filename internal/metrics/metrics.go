// Package metrics exposes Prometheus counters for the alert pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ScanPasses      prometheus.Counter
	EntriesSeen     prometheus.Counter
	DedupRejected   prometheus.Counter
	Resolutions     *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
	SessionRestarts prometheus.Counter
	DedupSize       prometheus.Gauge
}

// New builds and registers all collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ScanPasses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_scan_passes_total",
		Help: "Number of completed feed scan passes.",
	})
	m.EntriesSeen = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_entries_seen_total",
		Help: "Number of feed entries observed across all passes.",
	})
	m.DedupRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_dedup_rejected_total",
		Help: "Number of entries suppressed by the dedup store.",
	})
	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbscan_resolutions_total",
		Help: "Outbound link resolution attempts by outcome.",
	}, []string{"outcome"})
	m.Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbscan_deliveries_total",
		Help: "Alert delivery attempts by status.",
	}, []string{"status"})
	m.SessionRestarts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbscan_session_restarts_total",
		Help: "Number of browser session restarts.",
	})
	m.DedupSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbscan_dedup_store_size",
		Help: "Current number of entries held by the dedup store.",
	})

	m.registry.MustRegister(
		m.ScanPasses,
		m.EntriesSeen,
		m.DedupRejected,
		m.Resolutions,
		m.Deliveries,
		m.SessionRestarts,
		m.DedupSize,
	)
	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
