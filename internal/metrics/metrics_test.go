// cairnfeed/activity - Sharded Activity Feed Primitive
// Copyright 2026 The Cairnfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cairnfeed/activity

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFeedOperation_WithError(t *testing.T) {
	before := testutil.ToFloat64(FeedOperationErrors.WithLabelValues("store", "memory", "argument"))
	RecordFeedOperation("store", "memory", 5*time.Millisecond, "argument")
	after := testutil.ToFloat64(FeedOperationErrors.WithLabelValues("store", "memory", "argument"))
	if after != before+1 {
		t.Errorf("expected FeedOperationErrors to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordFeedOperation_WithoutError(t *testing.T) {
	before := testutil.ToFloat64(FeedOperationErrors.WithLabelValues("paginate", "redis", ""))
	RecordFeedOperation("paginate", "redis", 5*time.Millisecond, "")
	after := testutil.ToFloat64(FeedOperationErrors.WithLabelValues("paginate", "redis", ""))
	if after != before {
		t.Errorf("expected no error increment for a successful operation, got %v -> %v", before, after)
	}
}

func TestRecordDispatch_ObservesGroupSize(t *testing.T) {
	countBefore := testutil.CollectAndCount(DispatchGroupSize)
	RecordDispatch("groups", 10)
	countAfter := testutil.CollectAndCount(DispatchGroupSize)
	if countAfter < countBefore {
		t.Error("expected dispatch group size observation to be recorded")
	}
}

func TestRecordDispatchTimeout_Increments(t *testing.T) {
	before := testutil.ToFloat64(DispatchTimeouts.WithLabelValues("sequential"))
	RecordDispatchTimeout("sequential")
	after := testutil.ToFloat64(DispatchTimeouts.WithLabelValues("sequential"))
	if after != before+1 {
		t.Errorf("expected DispatchTimeouts to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordBreakerTransition_SetsStateGauge(t *testing.T) {
	RecordBreakerTransition("remote-provider", "closed", "open")
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("remote-provider")); got != 2 {
		t.Errorf("expected circuit breaker state gauge to be 2 (open), got %v", got)
	}

	before := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("remote-provider", "closed", "open"))
	RecordBreakerTransition("remote-provider", "closed", "open")
	after := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("remote-provider", "closed", "open"))
	if after != before+1 {
		t.Errorf("expected CircuitBreakerTransitions to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordRetryAttemptAndExhausted(t *testing.T) {
	beforeAttempt := testutil.ToFloat64(RetryAttempts.WithLabelValues("delete"))
	RecordRetryAttempt("delete")
	if got := testutil.ToFloat64(RetryAttempts.WithLabelValues("delete")); got != beforeAttempt+1 {
		t.Errorf("expected RetryAttempts to increment by 1, got %v -> %v", beforeAttempt, got)
	}

	beforeExhausted := testutil.ToFloat64(RetryExhausted.WithLabelValues("delete"))
	RecordRetryExhausted("delete")
	if got := testutil.ToFloat64(RetryExhausted.WithLabelValues("delete")); got != beforeExhausted+1 {
		t.Errorf("expected RetryExhausted to increment by 1, got %v -> %v", beforeExhausted, got)
	}
}

func TestRecordSnapshot_TracksOutcome(t *testing.T) {
	before := testutil.ToFloat64(SnapshotOperations.WithLabelValues("file", "save", "success"))
	RecordSnapshot("file", "save", 2*time.Millisecond, nil)
	if got := testutil.ToFloat64(SnapshotOperations.WithLabelValues("file", "save", "success")); got != before+1 {
		t.Errorf("expected success outcome to increment, got %v -> %v", before, got)
	}

	beforeErr := testutil.ToFloat64(SnapshotOperations.WithLabelValues("badger", "load", "error"))
	RecordSnapshot("badger", "load", time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(SnapshotOperations.WithLabelValues("badger", "load", "error")); got != beforeErr+1 {
		t.Errorf("expected error outcome to increment, got %v -> %v", beforeErr, got)
	}
}

func TestRecordAPIRequest_IncrementsCounterAndObservesDuration(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/v1/feeds/{name}/paginate", "200"))
	RecordAPIRequest("GET", "/v1/feeds/{name}/paginate", "200", 3*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/v1/feeds/{name}/paginate", "200")); got != before+1 {
		t.Errorf("expected APIRequestsTotal to increment by 1, got %v -> %v", before, got)
	}
}

func TestRecordRateLimitHit_Increments(t *testing.T) {
	before := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/v1/feeds/{name}/store"))
	RecordRateLimitHit("/v1/feeds/{name}/store")
	if got := testutil.ToFloat64(APIRateLimitHits.WithLabelValues("/v1/feeds/{name}/store")); got != before+1 {
		t.Errorf("expected APIRateLimitHits to increment by 1, got %v -> %v", before, got)
	}
}
