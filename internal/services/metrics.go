package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for error report builds.
type Metrics struct {
	ReportsTotal    prometheus.Counter   // Total number of reports built
	EventsProcessed prometheus.Counter   // Events placed into a cluster
	EventsSkipped   prometheus.Counter   // Events without a unit name or logs
	Clusters        prometheus.Gauge     // Clusters in the most recent report
	BuildDuration   prometheus.Histogram // Seconds spent querying and clustering
}

// NewMetrics creates and registers the report metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	reportsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "error_reports_total",
		Help: "Total number of system error reports built",
	})

	eventsProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "error_report_events_processed_total",
		Help: "Total number of system error events grouped into clusters",
	})

	eventsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "error_report_events_skipped_total",
		Help: "Total number of system error events missing a unit name or logs",
	})

	clusters := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "error_report_clusters",
		Help: "Number of clusters in the most recent report",
	})

	buildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "error_report_build_duration_seconds",
		Help:    "Time spent building a system error report",
		Buckets: prometheus.DefBuckets,
	})

	reg.MustRegister(reportsTotal)
	reg.MustRegister(eventsProcessed)
	reg.MustRegister(eventsSkipped)
	reg.MustRegister(clusters)
	reg.MustRegister(buildDuration)

	return &Metrics{
		ReportsTotal:    reportsTotal,
		EventsProcessed: eventsProcessed,
		EventsSkipped:   eventsSkipped,
		Clusters:        clusters,
		BuildDuration:   buildDuration,
	}
}
