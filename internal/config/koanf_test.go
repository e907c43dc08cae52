// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Name != "notifications" {
		t.Fatalf("expected a single default notifications feed, got %+v", cfg.Feeds)
	}
	if cfg.Feeds[0].Provider != "memory" {
		t.Errorf("default feed provider = %q, want memory", cfg.Feeds[0].Provider)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}
	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis.Addr = %q, want 127.0.0.1:6379", cfg.Redis.Addr)
	}
	if cfg.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("CircuitBreaker.FailureThreshold = %d, want 5", cfg.CircuitBreaker.FailureThreshold)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("Retry.MaxRetries = %d, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Snapshot.Enabled {
		t.Error("Snapshot.Enabled should default to false")
	}
	if cfg.Dispatch.RateLimitPerSecond != 500 {
		t.Errorf("Dispatch.RateLimitPerSecond = %v, want 500", cfg.Dispatch.RateLimitPerSecond)
	}
	if cfg.Dispatch.Burst != 50 {
		t.Errorf("Dispatch.Burst = %d, want 50", cfg.Dispatch.Burst)
	}
}

func TestLoadWithKoanf_AppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	os.Clearenv()
	t.Chdir(t.TempDir())

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadWithKoanf_EnvOverridesDefaults(t *testing.T) {
	os.Clearenv()
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_ConfigFileOverridesDefaults(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	t.Chdir(dir)

	yamlContent := "server:\n  port: 9999\nlogging:\n  level: warn\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 from config file", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn from config file", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_EnvOverridesConfigFile(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("SERVER_PORT", "7777")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env beats file)", cfg.Server.Port)
	}
}

func TestProcessSliceFields_SplitsCommaSeparatedEnvValue(t *testing.T) {
	os.Clearenv()
	t.Chdir(t.TempDir())
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.Security.CORSOrigins)
	}
}

func TestFindConfigFile_PrefersExplicitConfigPathEnvVar(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	if err := os.WriteFile(explicit, []byte("server:\n  port: 1234\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, explicit)

	if got := findConfigFile(); got != explicit {
		t.Errorf("findConfigFile() = %q, want %q", got, explicit)
	}
}

func TestDefaultRetryBaseDelayIsPositive(t *testing.T) {
	if defaultConfig().Retry.BaseDelay <= 0 {
		t.Error("default retry base delay must be positive")
	}
	if defaultConfig().Server.Timeout != 30*time.Second {
		t.Error("default server timeout should be 30s")
	}
}
