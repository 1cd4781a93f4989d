// Package metrics holds the Prometheus collectors exported on /jellysearch/metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellysearch_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jellysearch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Search path metrics
var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellysearch_search_requests_total",
			Help: "Search-capable requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: passthrough, proxied, empty, unauthenticated, denied, engine_error
	)

	SearchMatchedIDs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jellysearch_search_matched_ids",
			Help:    "Number of distinct identifiers matched per search request",
			Buckets: []float64{0, 1, 5, 10, 15, 20, 30, 50, 100},
		},
	)

	EngineQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jellysearch_engine_query_duration_seconds",
			Help:    "Search engine query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"partition"}, // "typed" or "unscoped"
	)

	OriginRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellysearch_origin_requests_total",
			Help: "Requests made to the origin media server",
		},
		[]string{"operation", "status"}, // status: 2xx, 4xx, 5xx, error
	)

	PermissionResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellysearch_permission_resolutions_total",
			Help: "Library permission lookups by result",
		},
		[]string{"result"}, // known, unknown
	)
)

// Index sync metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellysearch_sync_runs_total",
			Help: "Index synchronization runs by outcome",
		},
		[]string{"outcome"}, // success, failure
	)

	SyncDocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellysearch_sync_documents_indexed_total",
			Help: "Documents upserted into the search index",
		},
	)

	SyncRowFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellysearch_sync_row_failures_total",
			Help: "Source rows skipped because they could not be converted",
		},
	)

	SyncDocumentsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellysearch_sync_documents_pruned_total",
			Help: "Stale documents removed from the search index",
		},
	)

	SyncLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellysearch_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful index synchronization",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellysearch_sync_last_run_duration_seconds",
			Help: "Duration of the last index synchronization in seconds",
		},
	)
)

// StatusClass buckets an HTTP status code for low-cardinality labels.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}
