// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IdentityOperationsTotal tracks identity engine operations by outcome
	IdentityOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "operations_total",
			Help:      "Total number of identity engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// MastersCreatedTotal tracks master exercises inserted
	MastersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "masters_created_total",
			Help:      "Total number of master exercises created",
		},
	)

	// LinksWrittenTotal tracks exercise links written by source
	LinksWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "links_written_total",
			Help:      "Total number of exercise links written by source",
		},
		[]string{"source"},
	)

	// BestEffortFallbacksTotal tracks writes that failed and returned a synthetic result
	BestEffortFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "best_effort_fallbacks_total",
			Help:      "Total number of failed writes answered with a synthetic result",
		},
		[]string{"operation"},
	)

	// DegradedReadsTotal tracks reads that failed and degraded to an empty result
	DegradedReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "identity",
			Name:      "degraded_reads_total",
			Help:      "Total number of failed reads degraded to empty results",
		},
		[]string{"operation"},
	)

	// CacheRequestsTotal tracks master cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of master cache lookups by result",
		},
		[]string{"result"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// RecordOperation records the outcome of an identity engine operation
func RecordOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	IdentityOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordLinks records n links written by source
func RecordLinks(source string, n int) {
	if n > 0 {
		LinksWrittenTotal.WithLabelValues(source).Add(float64(n))
	}
}

// RecordBestEffortFallback records a synthetic result returned after a failed write
func RecordBestEffortFallback(operation string) {
	BestEffortFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordDegradedRead records a read that degraded to an empty result
func RecordDegradedRead(operation string) {
	DegradedReadsTotal.WithLabelValues(operation).Inc()
}

// RecordCacheLookup records a master cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an inbound HTTP request
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
