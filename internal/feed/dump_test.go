package feed

import (
	"context"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func seedProvider(t *testing.T, p *MemoryProvider, fc FeedContext) {
	t.Helper()
	ctx := context.Background()
	p.Store(ctx, fc, []string{"u1"}, NewEvent("a", 1.5))
	p.Store(ctx, fc, []string{"u1"}, NewEvent("b", 2.5))
	p.Store(ctx, fc, []string{"u2"}, NewEvent("c", 3.5))
	p.ResetLastRead(ctx, fc, []string{"u1"}, nil)
}

func assertProvidersEqual(t *testing.T, fc FeedContext, original, restored *MemoryProvider) {
	t.Helper()
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		origFetch, _ := original.Fetch(ctx, fc, []string{userID}).Value(userID)
		restFetch, _ := restored.Fetch(ctx, fc, []string{userID}).Value(userID)
		if len(origFetch) != len(restFetch) {
			t.Fatalf("user %s: expected %d events, got %d", userID, len(origFetch), len(restFetch))
		}
		for i := range origFetch {
			if origFetch[i] != restFetch[i] {
				t.Fatalf("user %s event %d mismatch: %+v vs %+v", userID, i, origFetch[i], restFetch[i])
			}
		}

		origLR, _ := original.LastRead(ctx, fc, []string{userID}).Value(userID)
		restLR, _ := restored.LastRead(ctx, fc, []string{userID}).Value(userID)
		if origLR != restLR {
			t.Fatalf("user %s: last_read mismatch %v vs %v", userID, origLR, restLR)
		}
	}
}

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	// Property P8.
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewFileSnapshotStore: %v", err)
	}

	fc := testFC()
	p := NewMemoryProvider()
	seedProvider(t, p, fc)

	if err := SaveSnapshot(p, fc, store); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := NewMemoryProvider()
	ok, err := LoadSnapshot(restored, fc, store)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}

	assertProvidersEqual(t, fc, p, restored)
}

func TestFileSnapshotStore_LoadMissingReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewFileSnapshotStore: %v", err)
	}

	restored := NewMemoryProvider()
	ok, err := LoadSnapshot(restored, testFC(), store)
	if err != nil {
		t.Fatalf("expected no error for missing snapshot, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing snapshot")
	}
}

func openTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	dir, err := os.MkdirTemp("", "feed-badger-snapshot-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("badger.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(dir)
	})
	return db
}

func TestBadgerSnapshotStore_RoundTrip(t *testing.T) {
	// Property P13.
	db := openTestBadger(t)
	store := NewBadgerSnapshotStore(db)

	fc := testFC()
	p := NewMemoryProvider()
	seedProvider(t, p, fc)

	if err := SaveSnapshot(p, fc, store); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	restored := NewMemoryProvider()
	ok, err := LoadSnapshot(restored, fc, store)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}

	assertProvidersEqual(t, fc, p, restored)
}
