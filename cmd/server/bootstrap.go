// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cairnfeed/activity/internal/config"
	"github.com/cairnfeed/activity/internal/feed"
	"github.com/cairnfeed/activity/internal/logging"
	"github.com/cairnfeed/activity/internal/metrics"
)

// app bundles the wired components main.go hands to the supervisor tree
// and the HTTP router.
type app struct {
	registry      *feed.Registry
	redisClient   *redis.Client
	badgerDB      *badger.DB
	snapshotStore feed.SnapshotStore
	memoryFeeds   map[string]*feed.Feed
}

// buildApp registers every feed in cfg.Feeds against a fresh registry,
// constructing a MemoryProvider or RemoteProvider per feed as configured.
func buildApp(cfg *config.Config) (*app, error) {
	a := &app{
		registry:    feed.NewRegistry(),
		memoryFeeds: make(map[string]*feed.Feed),
	}

	var redisClient *redis.Client
	needsRedis := false
	for _, fd := range cfg.Feeds {
		if fd.Provider == "redis" {
			needsRedis = true
		}
	}
	if needsRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		a.redisClient = redisClient
	}

	if cfg.Snapshot.Enabled {
		store, err := buildSnapshotStore(cfg)
		if err != nil {
			return nil, err
		}
		a.snapshotStore = store
		if bs, ok := store.(*badgerStoreHolder); ok {
			a.badgerDB = bs.db
		}
	}

	for _, fd := range cfg.Feeds {
		provider, err := buildProvider(cfg, fd, redisClient)
		if err != nil {
			return nil, fmt.Errorf("build provider for feed %q: %w", fd.Name, err)
		}

		f, err := a.registry.Define(fd.Name, feed.FeedConfig{
			Provider:  provider,
			Namespace: fd.Namespace,
			PerPage:   fd.PerPage,
			BatchSize: fd.BatchSize,
			MaxSize:   fd.MaxSize,
		})
		if err != nil {
			return nil, err
		}

		if fd.Provider == "memory" {
			a.memoryFeeds[fd.Name] = f
			if a.snapshotStore != nil {
				if mp, ok := provider.(*feed.MemoryProvider); ok {
					fc := feed.FeedContext{
						Namespace: fd.Namespace,
						FeedName:  fd.Name,
						MaxSize:   f.Config().MaxSize,
						BatchSize: f.Config().BatchSize,
					}
					if _, err := feed.LoadSnapshot(mp, fc, a.snapshotStore); err != nil {
						logging.Warn().Err(err).Str("feed", fd.Name).Msg("failed to restore snapshot")
					}
				}
			}
		}
	}

	return a, nil
}

func buildProvider(cfg *config.Config, fd config.FeedDefConfig, redisClient *redis.Client) (feed.Provider, error) {
	switch fd.Provider {
	case "memory":
		return feed.NewMemoryProvider(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("feed %q requires redis but no client was configured", fd.Name)
		}
		pool := feed.NewRedisConnPool(redisClient)
		cbCfg := feed.CircuitBreakerConfig{
			Name:             fd.Name,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		}
		onChange := func(name, from, to string) {
			metrics.RecordBreakerTransition(name, from, to)
			logging.Info().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
		}
		opts := []feed.RemoteProviderOption{
			feed.WithRetryConfig(feed.RetryConfig{
				MaxRetries: cfg.Retry.MaxRetries,
				BaseDelay:  cfg.Retry.BaseDelay,
			}),
			feed.WithDispatchRateLimit(cfg.Dispatch.RateLimitPerSecond, cfg.Dispatch.Burst),
		}
		return feed.NewRemoteProvider(pool, cbCfg, onChange, opts...), nil
	default:
		return nil, fmt.Errorf("feed %q: unknown provider %q", fd.Name, fd.Provider)
	}
}

// badgerStoreHolder lets buildApp recover the *badger.DB it opened so
// main.go can close it on shutdown, without SnapshotStore exposing one.
type badgerStoreHolder struct {
	feed.SnapshotStore
	db *badger.DB
}

func buildSnapshotStore(cfg *config.Config) (feed.SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "file", "":
		return feed.NewFileSnapshotStore(cfg.Snapshot.Dir)
	case "badger":
		opts := badger.DefaultOptions(filepath.Join(cfg.Snapshot.Dir, "badger"))
		opts.Logger = nil
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger snapshot store: %w", err)
		}
		return &badgerStoreHolder{SnapshotStore: feed.NewBadgerSnapshotStore(db), db: db}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

// snapshotInterval is the fixed cadence SnapshotWorkerService persists
// memory-provider feeds at; it is not yet operator-configurable.
const snapshotInterval = time.Minute

// poolHealthInterval is the cadence the messaging layer's
// BreakerStatePollerService samples redis connection pool depth at.
const poolHealthInterval = 15 * time.Second

// redisPoolSampler returns a sample func for BreakerStatePollerService that
// reports point-in-time pool depth; a nil client means no feed uses redis,
// so the sample is a no-op rather than the service being left unregistered.
func redisPoolSampler(client *redis.Client) func() {
	return func() {
		if client == nil {
			return
		}
		stats := client.PoolStats()
		metrics.RecordRedisPoolStats(stats.TotalConns, stats.IdleConns, stats.StaleConns)
	}
}
