// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where a config file is searched for,
// in order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cairnfeed/config.yaml",
	"/etc/cairnfeed/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every field set to a sensible
// default. Defaults are applied first in the koanf pipeline and may be
// overridden by a config file or environment variables.
func defaultConfig() *Config {
	return &Config{
		Feeds: []FeedDefConfig{
			{
				Name:      "notifications",
				Namespace: "default",
				Provider:  "memory",
				PerPage:   50,
				BatchSize: 10,
				MaxSize:   1000,
			},
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Redis: RedisConfig{
			Addr:        "127.0.0.1:6379",
			DB:          0,
			PoolSize:    10,
			DialTimeout: 5 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
			MaxRequests:      1,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  25 * time.Millisecond,
		},
		Snapshot: SnapshotConfig{
			Enabled: false,
			Backend: "file",
			Dir:     "/data/snapshots",
		},
		Dispatch: DispatchConfig{
			RateLimitPerSecond: 500,
			Burst:              50,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file, if found
//  3. Environment variables: override any setting, highest priority
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists koanf paths that should be parsed as
// comma-separated slices when they arrive from an environment variable.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values into slices
// for the paths named in sliceConfigPaths. Needed because env vars always
// arrive as strings while the YAML file and defaults already use []string.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps flat environment variable names to nested koanf
// config paths. Unmapped variables are skipped, so unrelated environment
// variables never leak into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"server_host":        "server.host",
		"server_port":        "server.port",
		"server_timeout":     "server.timeout",
		"environment":        "server.environment",
		"redis_addr":         "redis.addr",
		"redis_password":     "redis.password",
		"redis_db":           "redis.db",
		"redis_pool_size":    "redis.pool_size",
		"redis_dial_timeout": "redis.dial_timeout",

		"admin_token_hash":    "security.admin_token_hash",
		"rate_limit_reqs":     "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"circuit_breaker_failure_threshold": "circuit_breaker.failure_threshold",
		"circuit_breaker_timeout":           "circuit_breaker.timeout",
		"circuit_breaker_max_requests":      "circuit_breaker.max_requests",

		"retry_max_retries": "retry.max_retries",
		"retry_base_delay":  "retry.base_delay",

		"snapshot_enabled": "snapshot.enabled",
		"snapshot_backend": "snapshot.backend",
		"snapshot_dir":     "snapshot.dir",

		"dispatch_rate_limit_per_second": "dispatch.rate_limit_per_second",
		"dispatch_burst":                 "dispatch.burst",

		// ACTFEED_DEBUG has no mapping here and no Config field; nothing in
		// this module reads it, and cmd/server never passes
		// feed.WithDebugLogging to RemoteProvider.
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a fresh Koanf instance for advanced callers
// (hot-reload, tests) that need direct access outside of LoadWithKoanf.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}
