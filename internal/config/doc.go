// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

/*
Package config provides centralized configuration management for the
activity feed server.

It handles loading, validation, and parsing of process configuration from
a layered pipeline (defaults, an optional YAML file, then environment
variables) and provides sensible defaults for every optional setting.

# Configuration Sources

The package reads configuration from, in increasing order of precedence:
  - Built-in defaults
  - An optional YAML config file (config.yaml, or CONFIG_PATH)
  - Environment variables

# Configuration Structure

  - FeedDefConfig: process-wide feed definitions registered at startup
  - ServerConfig: admin HTTP server settings
  - RedisConfig: connection pool settings for the remote provider
  - SecurityConfig: admin bearer-token auth and rate limiting
  - LoggingConfig: zerolog level/format settings
  - CircuitBreakerConfig: breaker thresholds around the remote provider
  - RetryConfig: bounded retry policy for idempotent remote operations
  - SnapshotConfig: optional durability layer for the in-memory provider

# Environment Variables

  - SERVER_HOST, SERVER_PORT, SERVER_TIMEOUT, ENVIRONMENT
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE, REDIS_DIAL_TIMEOUT
  - ADMIN_TOKEN_HASH, RATE_LIMIT_REQS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT,
    CORS_ORIGINS, TRUSTED_PROXIES
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - CIRCUIT_BREAKER_FAILURE_THRESHOLD, CIRCUIT_BREAKER_TIMEOUT,
    CIRCUIT_BREAKER_MAX_REQUESTS
  - RETRY_MAX_RETRIES, RETRY_BASE_DELAY
  - SNAPSHOT_ENABLED, SNAPSHOT_BACKEND, SNAPSHOT_DIR

Feed definitions themselves (feeds: [...]) are only read from the YAML
config file or the built-in defaults; they are not individually
addressable via environment variables.

# Usage Example

	import "github.com/cairnfeed/activity/internal/config"

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}
	fmt.Printf("listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)

# Validation

Validate() rejects duplicate or malformed feed definitions, out-of-range
server/security settings, and production-mode requirements (an admin
token hash and non-wildcard CORS origins) before the process starts
accepting traffic.

# Thread Safety

The Config struct is immutable after Load() returns and is safe for
concurrent read access without synchronization.
*/
package config
