// Package metrics holds the Prometheus collectors shared by the API and workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_predictions_computed_total",
		Help: "Total number of order predictions computed.",
	})
	PredictionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_predictions_failed_total",
		Help: "Total number of order predictions that returned an error.",
	})
	EventsWithoutRule = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_events_without_rule_total",
		Help: "Total number of process events skipped because no active rule matched.",
	})
	MalformedWeightTables = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_malformed_weight_tables_total",
		Help: "Total number of severity weight tables that failed to parse.",
	})
	SnapshotsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_snapshots_recorded_total",
		Help: "Total number of prediction snapshots inserted.",
	})
	SnapshotsMarkedStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_snapshots_marked_stale_total",
		Help: "Total number of snapshots superseded by a newer prediction.",
	})
	ExplanationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_explanation_fallbacks_total",
		Help: "Total number of snapshots stored with a placeholder explanation.",
	})
	SnapshotPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_snapshot_publish_failures_total",
		Help: "Total number of snapshot notifications that could not be published.",
	})
	DashboardFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delayrisk_dashboard_fallbacks_total",
		Help: "Total number of dashboard reads served from the last known total.",
	})
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delayrisk_cache_lookups_total",
		Help: "Total number of cache-aside reads by result.",
	}, []string{"result"})
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "delayrisk_pipeline_duration_seconds",
		Help:    "Duration of a single-order prediction pipeline run.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delayrisk_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "delayrisk_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
