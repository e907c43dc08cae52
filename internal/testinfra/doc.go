// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Redis Container
//
// feed.RemoteProvider's integration tests spin up a real Redis instance via
// the testcontainers redis module and use the helpers here to wait for
// readiness and clean up afterward:
//
//	func TestRemoteProvider_Dedup(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    container, err := tcredis.Run(ctx, "redis:7-alpine")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, container)
//
//	    // Test against a real Redis sorted-set keyspace.
//	}
//
// # Benefits Over Mocks
//
// Using real containers provides several advantages:
//   - Tests validate actual ZADD/ZREVRANGE/ZCOUNT semantics
//   - No mock drift (mocks getting out of sync with real Redis behavior)
//   - Tests run against production-equivalent services
//
// # CI Considerations
//
// These tests require Docker and network access. In CI:
//   - Self-hosted runners have Docker pre-installed
//   - Container images are cached between runs
//   - Tests are skipped gracefully if Docker is unavailable
//
// # Network Requirements
//
// First run may need to download container images. Subsequent runs use cached images.
package testinfra
