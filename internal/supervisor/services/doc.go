// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

/*
Package services adapts long-running application components to suture's
Service interface so internal/supervisor can restart them independently.

	HTTPServerService          - api layer: the admin HTTP server
	SnapshotWorkerService      - data layer: periodic MemoryProvider dump
	BreakerStatePollerService  - messaging layer: periodic metrics sampling

Each wrapper adapts a different lifecycle shape (ListenAndServe/Shutdown, a
ticked save closure, a ticked sample closure) into Serve(ctx) error, so the
components themselves stay free of any suture dependency.
*/
package services
