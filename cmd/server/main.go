// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

// Package main is the entry point for the cairnfeed activity feed server.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered koanf load (defaults, YAML file, environment)
//  2. Feed registry: one Provider (memory or redis) per configured feed
//  3. Snapshot store: optional file- or Badger-backed durability for
//     memory-provider feeds
//  4. Admin HTTP surface: chi router with bearer-token auth, rate limiting,
//     metrics and health endpoints
//  5. Supervisor tree: suture-supervised snapshot workers and the HTTP server
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests to complete (per
// ServerConfig.Timeout), and flushes any pending snapshot writes.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cairnfeed/activity/internal/api"
	"github.com/cairnfeed/activity/internal/config"
	"github.com/cairnfeed/activity/internal/feed"
	"github.com/cairnfeed/activity/internal/logging"
	"github.com/cairnfeed/activity/internal/metrics"
	"github.com/cairnfeed/activity/internal/supervisor"
	"github.com/cairnfeed/activity/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Int("feeds", len(cfg.Feeds)).Msg("starting cairnfeed activity server")

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build application")
	}
	if a.redisClient != nil {
		defer func() {
			if err := a.redisClient.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing redis client")
			}
		}()
	}
	if a.badgerDB != nil {
		defer func() {
			if err := a.badgerDB.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing badger snapshot store")
			}
		}()
	}

	auth, err := api.NewTokenAuthenticator(cfg.Security.AdminTokenHash)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize admin token authenticator")
	}

	router := api.NewRouter(
		a.registry,
		auth,
		cfg.Server.Timeout,
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
	)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	if a.snapshotStore != nil {
		for _, fd := range cfg.Feeds {
			if fd.Provider != "memory" {
				continue
			}
			f, ok := a.memoryFeeds[fd.Name]
			if !ok {
				continue
			}
			mp, ok := f.Config().Provider.(*feed.MemoryProvider)
			if !ok {
				continue
			}
			feedName := fd.Name
			fc := feed.FeedContext{
				Namespace: fd.Namespace,
				FeedName:  feedName,
				MaxSize:   f.Config().MaxSize,
				BatchSize: f.Config().BatchSize,
			}
			store := a.snapshotStore
			backend := cfg.Snapshot.Backend
			if backend == "" {
				backend = "file"
			}
			tree.AddDataService(services.NewSnapshotWorkerService(feedName, snapshotInterval, func() error {
				start := time.Now()
				err := feed.SaveSnapshot(mp, fc, store)
				metrics.RecordSnapshot(backend, "save", time.Since(start), err)
				return err
			}, func(name string, err error) {
				logging.Error().Err(err).Str("feed", name).Msg("snapshot write failed")
			}))
			logging.Info().Str("feed", feedName).Msg("snapshot worker added to supervisor tree")
		}
	}

	tree.AddMessagingService(services.NewBreakerStatePollerService("pool-health", poolHealthInterval, redisPoolSampler(a.redisClient)))

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("http server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("cairnfeed activity server stopped gracefully")
}
