package feed

import (
	"context"
	"testing"
)

func TestDispatchGroups_PartialFailureIsolated(t *testing.T) {
	// Scenario S5: multi-user store over [1,2,3] where user 2's
	// sub-operation fails; 1 and 3 still succeed.
	ctx := context.Background()
	users := []string{"1", "2", "3"}

	resp := dispatchGroups(ctx, FeedContext{BatchSize: 10}, users, func(ctx context.Context, group []string) *Response[bool] {
		r := newResponse[bool](group)
		for _, id := range group {
			if id == "2" {
				r.setErr(id, ProviderErrorf(nil, "simulated transport failure"))
				continue
			}
			r.set(id, true)
		}
		return r
	})

	if !resp.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}
	if v, ok := resp.Value("1"); !ok || v != true {
		t.Fatalf("expected user 1 to succeed with true, got %v ok=%v", v, ok)
	}
	if v, ok := resp.Value("3"); !ok || v != true {
		t.Fatalf("expected user 3 to succeed with true, got %v ok=%v", v, ok)
	}
	if err := resp.Err("2"); err == nil {
		t.Fatal("expected user 2 to carry an error")
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected ValueOrRaise to panic for a failed user")
			}
		}()
		resp.ValueOrRaise("2")
	}()

	if v := resp.ValueOrRaise("1"); v != true {
		t.Fatalf("expected ValueOrRaise(1) to return true, got %v", v)
	}
}

func TestDispatchGroups_PreservesInputOrder(t *testing.T) {
	ctx := context.Background()
	users := []string{"c", "a", "b", "d", "e"}

	resp := dispatchGroups(ctx, FeedContext{BatchSize: 2}, users, func(ctx context.Context, group []string) *Response[int] {
		r := newResponse[int](group)
		for i, id := range group {
			r.set(id, i)
		}
		return r
	})

	keys := resp.Keys()
	for i, id := range users {
		if keys[i] != id {
			t.Fatalf("expected order %v, got %v", users, keys)
		}
	}
}

func TestPartition_RespectsBatchSize(t *testing.T) {
	groups := partition([]string{"1", "2", "3", "4", "5"}, 2)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %v", len(groups), groups)
	}
	if len(groups[0]) != 2 || len(groups[1]) != 2 || len(groups[2]) != 1 {
		t.Fatalf("unexpected group sizes: %v", groups)
	}
}

func TestDispatchSequential_ProcessesAllGroups(t *testing.T) {
	ctx := context.Background()
	users := []string{"1", "2", "3", "4"}
	var order []string

	resp := dispatchSequential(ctx, FeedContext{BatchSize: 1}, users, func(ctx context.Context, group []string) *Response[bool] {
		order = append(order, group...)
		r := newResponse[bool](group)
		for _, id := range group {
			r.set(id, true)
		}
		return r
	})

	if resp.Len() != 4 {
		t.Fatalf("expected 4 results, got %d", resp.Len())
	}
	for i, id := range users {
		if order[i] != id {
			t.Fatalf("expected sequential processing order %v, got %v", users, order)
		}
	}
}
