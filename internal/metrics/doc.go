// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

/*
Package metrics provides Prometheus metrics collection and export for the
activity feed server.

# Overview

The package instruments:
  - Per-operation latency and error rate for both the in-memory and remote
    providers (feed_operation_duration_seconds, feed_operation_errors_total)
  - Batch dispatch fan-out (feed_dispatch_group_size,
    feed_dispatch_timeouts_total)
  - Circuit breaker state and transitions around the remote provider
    (feed_circuit_breaker_state, feed_circuit_breaker_transitions_total)
  - Retry attempts and exhaustion on idempotent remote operations
    (feed_retry_attempts_total, feed_retry_exhausted_total)
  - Snapshot save/load outcomes (feed_snapshot_operations_total,
    feed_snapshot_duration_seconds)
  - The admin HTTP surface (feed_api_requests_total,
    feed_api_request_duration_seconds, feed_api_rate_limit_hits_total)

# Metrics Endpoint

cmd/server exposes metrics at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage

Call the Record* helpers from the call sites they describe rather than
touching the underlying collectors directly:

	start := time.Now()
	resp := provider.Store(ctx, fc, userIDs, ev)
	metrics.RecordFeedOperation("store", "memory", time.Since(start), firstErrorKind(resp))

# Prometheus Scrape Config

	scrape_configs:
	  - job_name: 'cairnfeed-activity'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: /metrics
	    scrape_interval: 15s

# Thread Safety

All collectors are registered once via promauto at package init and are
safe for concurrent use from any goroutine.
*/
package metrics
