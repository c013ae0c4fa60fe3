package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifier call latency in milliseconds.
	ClassifierCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_call_latency_ms",
			Help:    "Classifier service call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	// Emails routed, by decision source and outcome.
	EmailRoutedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_routed_count",
			Help: "Total number of emails routed",
		},
		[]string{"source", "status"}, // source: rule, ai, fallback; status: success, failed
	)

	// Batches skipped because the daily quota was already exhausted.
	QuotaSkippedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_skipped_batches_total",
			Help: "Total number of batches skipped due to quota exhaustion",
		},
	)

	// Database query latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Slow queries flagged by the pgx tracer.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Total number of queries slower than the slow-query threshold",
		},
	)
)

// RecordClassifierCallLatency records one classifier round trip.
func RecordClassifierCallLatency(status string, duration time.Duration) {
	ClassifierCallLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

// IncrementEmailRouted increments the routed-email counter.
func IncrementEmailRouted(source, status string) {
	EmailRoutedCount.WithLabelValues(source, status).Inc()
}

// IncrementQuotaSkipped increments the skipped-batch counter.
func IncrementQuotaSkipped() {
	QuotaSkippedCount.Inc()
}

// RecordDBQueryDuration records one database query.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration records one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery increments the slow-query counter.
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}
