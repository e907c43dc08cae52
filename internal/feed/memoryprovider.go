package feed

import (
	"context"
	"sync"
)

// MemoryProvider is the in-process reference Provider implementation
// (§4.3). It keeps one userFeedState per (feed, user_id), guarded by a
// per-user mutex; no global lock is ever held during an operation. It
// supports dump/restore to the flat format described in §6 for test
// fixtures and for the optional snapshot stores in §4.10.
type MemoryProvider struct {
	mu    sync.Mutex // guards the users map itself, not per-user state
	users map[feedUserKey]*userEntry
}

type feedUserKey struct {
	namespace string
	feedName  string
	userID    string
}

type userEntry struct {
	mu    sync.Mutex
	state *userFeedState
}

// NewMemoryProvider constructs an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{users: make(map[feedUserKey]*userEntry)}
}

var _ Provider = (*MemoryProvider)(nil)

func (p *MemoryProvider) entry(fc FeedContext, userID string) *userEntry {
	key := feedUserKey{namespace: fc.Namespace, feedName: fc.FeedName, userID: userID}

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.users[key]
	if !ok {
		e = &userEntry{state: newUserFeedState(fc.MaxSize)}
		p.users[key] = e
	}
	return e
}

func (p *MemoryProvider) Store(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		r := newResponse[bool](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.store(ev))
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) Delete(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		r := newResponse[bool](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.delete(ev))
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) DeleteIf(ctx context.Context, fc FeedContext, userIDs []string, pred func(Event) bool) *Response[int] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		r := newResponse[int](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.deleteIf(pred))
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) Wipe(ctx context.Context, fc FeedContext, userIDs []string) *Response[bool] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[bool] {
		r := newResponse[bool](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.wipe())
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) Paginate(ctx context.Context, fc FeedContext, userIDs []string, page, perPage int, peek, withTotal bool) *Response[PageResult] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[PageResult] {
		r := newResponse[PageResult](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			events := e.state.paginate(page, perPage, peek)
			pr := PageResult{Events: events}
			if withTotal {
				pr.Total = e.state.totalCount()
				pr.HasTotal = true
			}
			e.mu.Unlock()
			r.set(id, pr)
		}
		return r
	})
}

func (p *MemoryProvider) Fetch(ctx context.Context, fc FeedContext, userIDs []string) *Response[[]Event] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[[]Event] {
		r := newResponse[[]Event](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.fetch())
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) ResetLastRead(ctx context.Context, fc FeedContext, userIDs []string, at *float64) *Response[float64] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[float64] {
		r := newResponse[float64](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.resetLastRead(at))
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) TotalCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		r := newResponse[int](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.totalCount())
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) UnreadCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[int] {
		r := newResponse[int](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.unreadCount())
			e.mu.Unlock()
		}
		return r
	})
}

func (p *MemoryProvider) LastRead(ctx context.Context, fc FeedContext, userIDs []string) *Response[float64] {
	return dispatchSequential(ctx, fc, userIDs, func(ctx context.Context, group []string) *Response[float64] {
		r := newResponse[float64](group)
		for _, id := range group {
			e := p.entry(fc, id)
			e.mu.Lock()
			r.set(id, e.state.lastReadAt())
			e.mu.Unlock()
		}
		return r
	})
}

// Dump produces the flat snapshot format of §6 for every user currently
// held under the given feed context's namespace/feed name.
func (p *MemoryProvider) Dump(fc FeedContext) map[string]UserDump {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]UserDump)
	for key, e := range p.users {
		if key.namespace != fc.Namespace || key.feedName != fc.FeedName {
			continue
		}
		e.mu.Lock()
		out[key.userID] = UserDump{
			Events:   e.state.events.dump(),
			LastRead: e.state.lastRead,
		}
		e.mu.Unlock()
	}
	return out
}

// Restore replaces the state for every user named in dump under the given
// feed context, constructing fresh userFeedStates from the dumped entries.
func (p *MemoryProvider) Restore(fc FeedContext, dump map[string]UserDump) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for userID, ud := range dump {
		key := feedUserKey{namespace: fc.Namespace, feedName: fc.FeedName, userID: userID}
		state := &userFeedState{
			events:   restoreOrderedSet(ud.Events),
			lastRead: ud.LastRead,
			maxSize:  fc.MaxSize,
		}
		p.users[key] = &userEntry{state: state}
	}
}

// UserDump is the per-user shape of the flat dump format described in §6:
// a flat mapping from user_id to {events, last_read}.
type UserDump struct {
	Events   []dumpEntry `json:"events"`
	LastRead float64     `json:"last_read"`
}
