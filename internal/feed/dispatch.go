package feed

import (
	"context"
	"sync"

	"github.com/cairnfeed/activity/internal/metrics"
)

// partition splits userIDs into groups of at most batchSize, preserving
// order, per §4.2's batch-dispatch rule.
func partition(userIDs []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = len(userIDs)
		if batchSize == 0 {
			batchSize = 1
		}
	}
	groups := make([][]string, 0, (len(userIDs)+batchSize-1)/batchSize)
	for start := 0; start < len(userIDs); start += batchSize {
		end := start + batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		groups = append(groups, userIDs[start:end])
	}
	return groups
}

// dispatchGroups runs worker once per group, merging the per-group
// responses into one Response that preserves the original userIDs order.
// Groups run concurrently (bounded by the caller's own concurrency
// control, e.g. a connection pool); within dispatchGroups itself there is
// no additional concurrency cap, since §4.2 delegates the fan-out
// parallelism policy to the provider.
//
// If ctx is cancelled or its deadline passes, groups still in flight have
// their remaining, not-yet-completed users marked with a Timeout error;
// users whose sub-operation had already completed keep their result, per
// §5's "no partial results are discarded" cancellation rule.
func dispatchGroups[T any](ctx context.Context, fc FeedContext, userIDs []string, worker func(ctx context.Context, group []string) *Response[T]) *Response[T] {
	ctx, cancel := fc.withDeadline(ctx)
	defer cancel()

	out := newResponse[T](userIDs)
	groups := partition(userIDs, fc.BatchSize)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, group := range groups {
		metrics.RecordDispatch("groups", len(group))
		wg.Add(1)
		go func(group []string) {
			defer wg.Done()
			groupResp := worker(ctx, group)

			mu.Lock()
			defer mu.Unlock()
			for _, id := range group {
				if v, ok := groupResp.Value(id); ok {
					out.set(id, v)
				} else if err := groupResp.Err(id); err != nil {
					out.setErr(id, err)
				} else {
					metrics.RecordDispatchTimeout("groups")
					out.setErr(id, TimeoutError("deadline exceeded before sub-operation completed"))
				}
			}
		}(group)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Wait for in-flight groups to finish aborting rather than
		// returning immediately, so completed per-user results are never
		// discarded; workers are expected to respect ctx internally.
		<-done
	}

	return out
}

// dispatchSequential runs worker once per group, one group at a time, per
// §4.2's in-memory provider rule ("groups are processed sequentially under
// per-user locks"). Used by the in-memory provider, which relies on
// fine-grained per-user mutexes rather than connection-pool parallelism.
func dispatchSequential[T any](ctx context.Context, fc FeedContext, userIDs []string, worker func(ctx context.Context, group []string) *Response[T]) *Response[T] {
	ctx, cancel := fc.withDeadline(ctx)
	defer cancel()

	out := newResponse[T](userIDs)
	groups := partition(userIDs, fc.BatchSize)

	for _, group := range groups {
		select {
		case <-ctx.Done():
			for _, id := range group {
				metrics.RecordDispatchTimeout("sequential")
				out.setErr(id, TimeoutError("deadline exceeded before sub-operation started"))
			}
			continue
		default:
		}

		metrics.RecordDispatch("sequential", len(group))
		groupResp := worker(ctx, group)
		for _, id := range group {
			if v, ok := groupResp.Value(id); ok {
				out.set(id, v)
			} else if err := groupResp.Err(id); err != nil {
				out.setErr(id, err)
			} else {
				metrics.RecordDispatchTimeout("sequential")
				out.setErr(id, TimeoutError("deadline exceeded before sub-operation completed"))
			}
		}
	}

	return out
}
