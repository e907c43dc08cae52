// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package config

import (
	"fmt"
	"time"
)

// Config holds all process configuration loaded from a config file and
// environment variables. It is the root of the layered load pipeline
// implemented in koanf.go: defaults, then an optional YAML file, then
// environment variables, in increasing order of precedence.
type Config struct {
	Feeds          []FeedDefConfig      `koanf:"feeds"`
	Server         ServerConfig         `koanf:"server"`
	Redis          RedisConfig          `koanf:"redis"`
	Security       SecurityConfig       `koanf:"security"`
	Logging        LoggingConfig        `koanf:"logging"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Retry          RetryConfig          `koanf:"retry"`
	Snapshot       SnapshotConfig       `koanf:"snapshot"`
	Dispatch       DispatchConfig       `koanf:"dispatch"`
}

// FeedDefConfig describes one process-wide feed definition as registered
// against the feed.Registry at startup. Name must be unique; registering
// the same name twice with a different definition is a config error,
// surfaced at Load time as a Validate failure (registering it against
// feed.Registry directly is a feed.ConfigError).
type FeedDefConfig struct {
	Name      string `koanf:"name"`
	Namespace string `koanf:"namespace"`
	// Provider selects the backing store: "memory" or "redis".
	Provider  string `koanf:"provider"`
	PerPage   int    `koanf:"per_page"`
	BatchSize int    `koanf:"batch_size"`
	MaxSize   int    `koanf:"max_size"`
}

// ServerConfig configures the admin HTTP surface (SPEC_FULL §4.11).
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// RedisConfig configures the connection pool backing RemoteProvider (§4.4).
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	PoolSize    int           `koanf:"pool_size"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
}

// SecurityConfig configures the admin surface's bearer-token auth and rate
// limiting (SPEC_FULL §4.11).
type SecurityConfig struct {
	// AdminTokenHash is a bcrypt hash of the admin bearer token. The plain
	// token is never stored in config.
	AdminTokenHash    string        `koanf:"admin_token_hash"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// LoggingConfig configures the zerolog logger (internal/logging).
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CircuitBreakerConfig configures the breaker guarding RemoteProvider calls
// (§4.8). It mirrors feed.CircuitBreakerConfig's fields so cmd/server can
// translate it 1:1 without config importing the feed package.
type CircuitBreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	Timeout          time.Duration `koanf:"timeout"`
	MaxRequests      uint32        `koanf:"max_requests"`
}

// RetryConfig configures idempotent-operation retry on the remote provider
// (§4.9).
type RetryConfig struct {
	MaxRetries uint64        `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
}

// SnapshotConfig configures the optional durability layer for
// MemoryProvider (§4.10).
type SnapshotConfig struct {
	Enabled bool `koanf:"enabled"`
	// Backend selects the store implementation: "file" or "badger".
	Backend string `koanf:"backend"`
	Dir     string `koanf:"dir"`
}

// DispatchConfig bounds the rate of new batch-group dispatches a
// RemoteProvider admits to its backing keyspace (§5), independent of the
// Redis connection pool's own size.
type DispatchConfig struct {
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
	Burst              int     `koanf:"burst"`
}

// FeedByName returns the definition named name, if any.
func (c *Config) FeedByName(name string) (FeedDefConfig, bool) {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f, true
		}
	}
	return FeedDefConfig{}, false
}

// IsProduction reports whether the server is running in production mode,
// which tightens several validation rules (see validateSecurity).
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration via the layered koanf pipeline and validates it.
// It is the preferred entry point for cmd/server.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}
