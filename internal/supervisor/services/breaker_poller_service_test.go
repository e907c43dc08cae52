// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*BreakerStatePollerService)(nil)

func TestBreakerStatePollerService_SamplesOnInterval(t *testing.T) {
	var samples atomic.Int32
	svc := NewBreakerStatePollerService("breaker-poller", 10*time.Millisecond, func() {
		samples.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if samples.Load() < 3 {
		t.Errorf("expected at least 3 samples, got %d", samples.Load())
	}
}

func TestBreakerStatePollerService_String(t *testing.T) {
	svc := NewBreakerStatePollerService("breaker-poller", time.Second, func() {})
	if svc.String() != "breaker-poller" {
		t.Errorf("unexpected String(): %q", svc.String())
	}
}
