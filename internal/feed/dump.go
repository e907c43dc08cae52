package feed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// snapshotFormatVersion tags the dump envelope so future format changes can
// be detected on restore instead of silently misreading (SPEC_FULL §3).
const snapshotFormatVersion = 1

// Snapshot wraps the flat per-user dump format of §6 with a version tag.
type Snapshot struct {
	Version int                 `json:"version"`
	Feed    string              `json:"feed"`
	Users   map[string]UserDump `json:"users"`
}

// SnapshotStore persists and restores a MemoryProvider's dump for one feed.
// Two implementations are provided: FileSnapshotStore (the spec-mandated
// flat JSON file) and BadgerSnapshotStore (an optional embedded-KV backend
// for durability without a remote provider). Neither changes provider
// semantics; this is persistence of the in-memory provider's state, not a
// third Provider implementation.
type SnapshotStore interface {
	Save(feedName string, dump map[string]UserDump) error
	Load(feedName string) (map[string]UserDump, bool, error)
}

// FileSnapshotStore stores one JSON file per feed under Dir.
type FileSnapshotStore struct {
	Dir string
}

// NewFileSnapshotStore constructs a FileSnapshotStore rooted at dir,
// creating it if it does not already exist.
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, TransportError("create snapshot directory", err)
	}
	return &FileSnapshotStore{Dir: dir}, nil
}

func (f *FileSnapshotStore) path(feedName string) string {
	return filepath.Join(f.Dir, feedName+".json")
}

func (f *FileSnapshotStore) Save(feedName string, dump map[string]UserDump) error {
	snap := Snapshot{Version: snapshotFormatVersion, Feed: feedName, Users: dump}
	data, err := json.Marshal(snap)
	if err != nil {
		return ProviderErrorf(err, "marshal snapshot for feed %q", feedName)
	}
	if err := os.WriteFile(f.path(feedName), data, 0o644); err != nil {
		return TransportError(fmt.Sprintf("write snapshot for feed %q", feedName), err)
	}
	return nil
}

func (f *FileSnapshotStore) Load(feedName string) (map[string]UserDump, bool, error) {
	data, err := os.ReadFile(f.path(feedName))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, TransportError(fmt.Sprintf("read snapshot for feed %q", feedName), err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, ProviderErrorf(err, "unmarshal snapshot for feed %q", feedName)
	}
	if snap.Version != snapshotFormatVersion {
		return nil, false, ProviderErrorf(nil, "snapshot for feed %q has unsupported version %d", feedName, snap.Version)
	}
	return snap.Users, true, nil
}

// BadgerSnapshotStore stores the same dump payload as a value under a
// feed-scoped key in an embedded Badger database, for processes that want
// snapshot durability without standing up a remote provider.
type BadgerSnapshotStore struct {
	db *badger.DB
}

// NewBadgerSnapshotStore wraps an already-open Badger database.
func NewBadgerSnapshotStore(db *badger.DB) *BadgerSnapshotStore {
	return &BadgerSnapshotStore{db: db}
}

func badgerSnapshotKey(feedName string) []byte {
	return []byte("feed-snapshot:" + feedName)
}

func (b *BadgerSnapshotStore) Save(feedName string, dump map[string]UserDump) error {
	snap := Snapshot{Version: snapshotFormatVersion, Feed: feedName, Users: dump}
	data, err := json.Marshal(snap)
	if err != nil {
		return ProviderErrorf(err, "marshal snapshot for feed %q", feedName)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerSnapshotKey(feedName), data)
	})
	if err != nil {
		return TransportError(fmt.Sprintf("write badger snapshot for feed %q", feedName), err)
	}
	return nil
}

func (b *BadgerSnapshotStore) Load(feedName string) (map[string]UserDump, bool, error) {
	var snap Snapshot
	found := true

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerSnapshotKey(feedName))
		if err == badger.ErrKeyNotFound {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		return nil, false, TransportError(fmt.Sprintf("read badger snapshot for feed %q", feedName), err)
	}
	if !found {
		return nil, false, nil
	}
	if snap.Version != snapshotFormatVersion {
		return nil, false, ProviderErrorf(nil, "snapshot for feed %q has unsupported version %d", feedName, snap.Version)
	}
	return snap.Users, true, nil
}

// SaveSnapshot dumps p's state for fc into store under fc.FeedName.
func SaveSnapshot(p *MemoryProvider, fc FeedContext, store SnapshotStore) error {
	return store.Save(fc.FeedName, p.Dump(fc))
}

// LoadSnapshot restores p's state for fc from store, if a snapshot exists.
func LoadSnapshot(p *MemoryProvider, fc FeedContext, store SnapshotStore) (bool, error) {
	dump, ok, err := store.Load(fc.FeedName)
	if err != nil || !ok {
		return ok, err
	}
	p.Restore(fc, dump)
	return true, nil
}
