// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package services

import (
	"context"
	"fmt"
	"time"
)

// Snapshotter matches feed.SnapshotStore's save-side collaborator: a
// closure that dumps one MemoryProvider feed to its configured backend.
// Defined here rather than importing internal/feed directly so this
// package stays a thin suture.Service adapter, matching the rest of the
// package.
type Snapshotter func() error

// SnapshotWorkerService periodically persists one feed's in-memory state
// via Snapshotter, for feeds with snapshotting enabled (SPEC_FULL §4.10).
// One instance is added to the data layer per such feed.
type SnapshotWorkerService struct {
	feedName string
	interval time.Duration
	save     Snapshotter
	onError  func(feedName string, err error)
}

// NewSnapshotWorkerService constructs a worker that calls save every
// interval. onError may be nil; when set, it is invoked instead of the
// worker terminating, so one bad write doesn't take the layer down.
func NewSnapshotWorkerService(feedName string, interval time.Duration, save Snapshotter, onError func(string, error)) *SnapshotWorkerService {
	return &SnapshotWorkerService{feedName: feedName, interval: interval, save: save, onError: onError}
}

// Serve implements suture.Service.
func (s *SnapshotWorkerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.save(); err != nil {
				if s.onError != nil {
					s.onError(s.feedName, err)
					continue
				}
				return fmt.Errorf("snapshot feed %q: %w", s.feedName, err)
			}
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *SnapshotWorkerService) String() string {
	return "snapshot-worker:" + s.feedName
}
