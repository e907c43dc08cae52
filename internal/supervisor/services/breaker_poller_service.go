// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package services

import (
	"context"
	"time"
)

// BreakerStatePollerService runs a periodic housekeeping sample on the
// messaging layer (SPEC_FULL §2's "messaging: background housekeeping").
// The remote provider reports breaker transitions as they happen via
// feed.BreakerStateChangeFunc; this service exists for metrics that need
// to be sampled on an interval rather than pushed on transition, such as
// periodic pool-depth or queue-length gauges.
type BreakerStatePollerService struct {
	interval time.Duration
	sample   func()
	name     string
}

// NewBreakerStatePollerService calls sample every interval until the
// context is canceled.
func NewBreakerStatePollerService(name string, interval time.Duration, sample func()) *BreakerStatePollerService {
	return &BreakerStatePollerService{interval: interval, sample: sample, name: name}
}

// Serve implements suture.Service.
func (p *BreakerStatePollerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.sample()
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (p *BreakerStatePollerService) String() string {
	return p.name
}
