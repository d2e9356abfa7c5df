package prometheus

import (
	"time"

	"github.com/phrazzld/powder/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Name pool metrics
	NameOperationsCounter prometheus.CounterVec
	NamePoolGauge         prometheus.GaugeVec

	// Project metrics
	ProjectOperationsCounter prometheus.CounterVec

	// Linking engine metrics
	LinkConflictsCounter prometheus.Counter
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Name pool metrics
	NameOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_name_operations_total",
			Help: "Total number of name pool operations",
		},
		[]string{"operation"},
	)

	NamePoolGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_name_pool",
			Help: "Current number of names in the pool by status",
		},
		[]string{"status"},
	)

	// Project metrics
	ProjectOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_project_operations_total",
			Help: "Total number of project operations",
		},
		[]string{"operation"},
	)

	// Linking engine metrics
	LinkConflictsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_link_conflicts_total",
			Help: "Total number of rejected name double-assignments",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordNameOperation increments the counter for name pool operations
func RecordNameOperation(operation string) {
	NameOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordProjectOperation increments the counter for project operations
func RecordProjectOperation(operation string) {
	ProjectOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordLinkConflict increments the counter for rejected double-assignments
func RecordLinkConflict() {
	LinkConflictsCounter.Inc()
}

// UpdateNamePool updates the gauge for the name pool size by status
func UpdateNamePool(status string, count float64) {
	NamePoolGauge.WithLabelValues(status).Set(count)
}
