// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the activity feed server. Instrumentation covers:
// - Per-operation latency and error rate for both providers
// - Batch dispatch fan-out/sequential group sizes
// - Circuit breaker state and retry behavior on the remote provider
// - Snapshot save/load outcomes
// - The admin HTTP surface

var (
	// FeedOperationDuration tracks latency of a Provider operation, labeled
	// by operation name (store, delete, paginate, ...) and provider kind
	// (memory, redis).
	FeedOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_operation_duration_seconds",
			Help:    "Duration of feed provider operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "provider"},
	)

	// FeedOperationErrors counts per-user operation failures surfaced
	// through a Response, labeled by the FeedError kind.
	FeedOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_operation_errors_total",
			Help: "Total number of per-user feed operation errors",
		},
		[]string{"operation", "provider", "error_kind"},
	)

	// FeedUsersProcessed counts the number of user IDs passed through a
	// batch operation, labeled by operation and provider.
	FeedUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_users_processed_total",
			Help: "Total number of user IDs processed by batch feed operations",
		},
		[]string{"operation", "provider"},
	)

	// FeedStoreTrimmed counts events evicted on Store because a user's
	// feed had reached max_size.
	FeedStoreTrimmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_store_trimmed_total",
			Help: "Total number of events evicted on store due to max_size",
		},
	)

	// FeedUnreadCount observes the unread count returned by UnreadCount,
	// useful for dashboarding read-engagement distribution.
	FeedUnreadCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_unread_count",
			Help:    "Distribution of per-user unread counts returned by UnreadCount",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// DispatchGroupSize observes how many user IDs land in a single
	// dispatch group, labeled by dispatch mode (groups, sequential).
	DispatchGroupSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_dispatch_group_size",
			Help:    "Number of user IDs per dispatch group",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"mode"},
	)

	// DispatchTimeouts counts users whose sub-operation did not complete
	// before the FeedContext deadline elapsed.
	DispatchTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_dispatch_timeouts_total",
			Help: "Total number of users whose batch sub-operation timed out",
		},
		[]string{"mode"},
	)

	// CircuitBreakerState reports the current gobreaker state (0=closed,
	// 1=half-open, 2=open) for a named breaker.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts every state change a breaker makes.
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// RetryAttempts counts retry attempts issued by the bounded retry
	// policy around idempotent remote operations.
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_retry_attempts_total",
			Help: "Total number of retry attempts for idempotent remote operations",
		},
		[]string{"operation"},
	)

	// RetryExhausted counts operations that failed even after all retries.
	RetryExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_retry_exhausted_total",
			Help: "Total number of operations that exhausted all retry attempts",
		},
		[]string{"operation"},
	)

	// SnapshotOperations counts snapshot save/load calls, labeled by
	// backend (file, badger) and outcome (success, error).
	SnapshotOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_snapshot_operations_total",
			Help: "Total number of snapshot save/load operations",
		},
		[]string{"backend", "action", "outcome"},
	)

	// SnapshotDuration tracks snapshot save/load latency.
	SnapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_snapshot_duration_seconds",
			Help:    "Duration of snapshot save/load operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "action"},
	)

	// APIRequestsTotal counts admin HTTP surface requests.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_api_requests_total",
			Help: "Total number of admin HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// APIRequestDuration tracks admin HTTP surface request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_api_request_duration_seconds",
			Help:    "Duration of admin HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// APIRateLimitHits counts requests rejected by the admin rate limiter.
	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_api_rate_limit_hits_total",
			Help: "Total number of admin requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// APIActiveRequests tracks the number of admin HTTP requests currently
	// in flight.
	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_api_active_requests",
			Help: "Current number of in-flight admin HTTP requests",
		},
	)

	// ConnPoolAcquireDuration tracks how long RemoteProvider waits to
	// acquire a pooled connection.
	ConnPoolAcquireDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_conn_pool_acquire_duration_seconds",
			Help:    "Duration of connection pool acquisition for the remote provider",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RedisPoolConnections reports point-in-time connection pool depth,
	// sampled on an interval by the messaging layer's breaker-state poller
	// rather than pushed per request.
	RedisPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_redis_pool_connections",
			Help: "Current redis connection pool depth by state (total, idle, stale)",
		},
		[]string{"state"},
	)
)

// RecordFeedOperation records the outcome of a single Provider call.
func RecordFeedOperation(operation, provider string, duration time.Duration, errKind string) {
	FeedOperationDuration.WithLabelValues(operation, provider).Observe(duration.Seconds())
	if errKind != "" {
		FeedOperationErrors.WithLabelValues(operation, provider, errKind).Inc()
	}
}

// RecordDispatch records one dispatchGroups/dispatchSequential call.
func RecordDispatch(mode string, groupSize int) {
	DispatchGroupSize.WithLabelValues(mode).Observe(float64(groupSize))
}

// RecordDispatchTimeout records a user whose sub-operation missed the
// FeedContext deadline.
func RecordDispatchTimeout(mode string) {
	DispatchTimeouts.WithLabelValues(mode).Inc()
}

// RecordBreakerTransition records a circuit breaker state change, as
// reported by feed.BreakerStateChangeFunc.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()

	var state float64
	switch to {
	case "closed":
		state = 0
	case "half-open":
		state = 1
	case "open":
		state = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordRetryAttempt records one retry attempt for operation.
func RecordRetryAttempt(operation string) {
	RetryAttempts.WithLabelValues(operation).Inc()
}

// RecordRetryExhausted records operation failing after its final retry.
func RecordRetryExhausted(operation string) {
	RetryExhausted.WithLabelValues(operation).Inc()
}

// RecordSnapshot records the outcome of a snapshot save or load.
func RecordSnapshot(backend, action string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	SnapshotOperations.WithLabelValues(backend, action, outcome).Inc()
	SnapshotDuration.WithLabelValues(backend, action).Observe(duration.Seconds())
}

// RecordAPIRequest records one admin HTTP request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimitHit records a request rejected by the admin rate limiter.
func RecordRateLimitHit(route string) {
	APIRateLimitHits.WithLabelValues(route).Inc()
}

// RecordRedisPoolStats records redis connection pool depth sampled by the
// messaging layer's periodic pool-health poller.
func RecordRedisPoolStats(total, idle, stale uint32) {
	RedisPoolConnections.WithLabelValues("total").Set(float64(total))
	RedisPoolConnections.WithLabelValues("idle").Set(float64(idle))
	RedisPoolConnections.WithLabelValues("stale").Set(float64(stale))
}

// TrackActiveRequest increments or decrements the in-flight admin request
// gauge; call with inc=true on handler entry and inc=false on return.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
