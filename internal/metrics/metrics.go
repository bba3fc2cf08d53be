// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package metrics provides Prometheus metrics for the API surface, the
// recommendation cache, the ingestion pipeline, and WebSocket connections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation Metrics
	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	RecommendationCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_evictions_total",
			Help: "Total number of recommendation cache evictions",
		},
		[]string{"reason"}, // "capacity", "expired"
	)

	RecommendationCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_cache_entries",
			Help: "Current number of cached recommendation lists",
		},
	)

	RecommendationComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_compute_duration_seconds",
			Help:    "Time spent filtering and ranking a recommendation list",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_results_count",
			Help:    "Number of destinations returned per recommendation request",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20},
		},
	)

	// Ingestion Metrics
	SwipesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipes_ingested_total",
			Help: "Total number of swipe events accepted for ingestion",
		},
		[]string{"path", "action"}, // path: "fast", "slow"
	)

	SwipesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipes_rejected_total",
			Help: "Total number of swipe events rejected during validation",
		},
		[]string{"reason"},
	)

	IngestQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_queue_length",
			Help: "Current number of detail_tap events waiting in the batch queue",
		},
	)

	IngestFlushTimerArmed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_flush_timer_armed",
			Help: "Whether the batch flush timer is currently armed (1) or idle (0)",
		},
	)

	IngestFlushDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_flush_duration_seconds",
			Help:    "Duration of batch flush transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"}, // "size", "timer", "shutdown"
	)

	IngestFlushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_flush_batch_size",
			Help:    "Number of events written per batch flush",
			Buckets: []float64{1, 5, 10, 25, 50, 75, 100},
		},
	)

	IngestFlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_flush_failures_total",
			Help: "Total number of batch flushes that failed and were dropped",
		},
	)

	IngestEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_events_dropped_total",
			Help: "Total number of events dropped due to failed batch flushes",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_breaker_state",
			Help: "Circuit breaker state for store writes (0=closed, 1=half-open, 2=open)",
		},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total number of stats snapshots broadcast to WebSocket clients",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordFlush records a completed batch flush
func RecordFlush(trigger string, batchSize int, duration time.Duration, err error) {
	IngestFlushDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	if err != nil {
		IngestFlushFailures.Inc()
		IngestEventsDropped.Add(float64(batchSize))
		return
	}
	IngestFlushBatchSize.Observe(float64(batchSize))
}
