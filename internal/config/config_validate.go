// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and internally
// consistent. It does not touch the network or the filesystem.
func (c *Config) Validate() error {
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCircuitBreaker(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateSnapshot(); err != nil {
		return err
	}
	return c.validateDispatch()
}

// validateFeeds rejects duplicate feed names and malformed definitions
// up front, so a configuration error surfaces before the process starts
// accepting traffic rather than as a feed.ConfigError on first use.
func (c *Config) validateFeeds() error {
	seen := make(map[string]FeedDefConfig, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed definition missing a name")
		}
		if prior, ok := seen[f.Name]; ok && prior != f {
			return fmt.Errorf("feed %q is defined more than once with different settings", f.Name)
		}
		seen[f.Name] = f

		switch f.Provider {
		case "memory", "redis":
		default:
			return fmt.Errorf("feed %q: provider must be \"memory\" or \"redis\", got %q", f.Name, f.Provider)
		}
		if f.PerPage <= 0 {
			return fmt.Errorf("feed %q: per_page must be positive", f.Name)
		}
		if f.BatchSize <= 0 {
			return fmt.Errorf("feed %q: batch_size must be positive", f.Name)
		}
		if f.MaxSize <= 0 {
			return fmt.Errorf("feed %q: max_size must be positive", f.Name)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("ENVIRONMENT must be one of development, production, test, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateRedis() error {
	hasRedisFeed := false
	for _, f := range c.Feeds {
		if f.Provider == "redis" {
			hasRedisFeed = true
			break
		}
	}
	if !hasRedisFeed {
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when any feed uses the redis provider")
	}
	if c.Redis.PoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.IsProduction() && c.Security.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH is required in production")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQS must be positive unless rate limiting is disabled")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive unless rate limiting is disabled")
		}
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS may not be \"*\" in production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a recognized zerolog level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateCircuitBreaker() error {
	if c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_FAILURE_THRESHOLD must be positive")
	}
	if c.CircuitBreaker.Timeout <= 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must be positive")
	}
	return nil
}

func (c *Config) validateSnapshot() error {
	if !c.Snapshot.Enabled {
		return nil
	}
	switch c.Snapshot.Backend {
	case "file", "badger":
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND must be file or badger, got %q", c.Snapshot.Backend)
	}
	if c.Snapshot.Dir == "" {
		return fmt.Errorf("SNAPSHOT_DIR is required when snapshots are enabled")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if c.Dispatch.RateLimitPerSecond <= 0 {
		return fmt.Errorf("DISPATCH_RATE_LIMIT_PER_SECOND must be positive")
	}
	if c.Dispatch.Burst <= 0 {
		return fmt.Errorf("DISPATCH_BURST must be positive")
	}
	return nil
}
