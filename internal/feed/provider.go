package feed

import (
	"context"
	"time"
)

// FeedContext carries the immutable, per-feed parameters a provider needs
// to execute a batched operation: sizing, namespacing, and the deadline for
// this particular call.
type FeedContext struct {
	Namespace string
	FeedName  string
	MaxSize   int
	BatchSize int
	Deadline  time.Time
}

// withDeadline returns ctx bounded by FeedContext.Deadline when set.
func (fc FeedContext) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if fc.Deadline.IsZero() {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, fc.Deadline)
}

// PageResult is the value type returned per user by Paginate.
type PageResult struct {
	Events []Event
	Total  int
	// HasTotal reports whether Total was actually computed; callers that
	// pass withTotal=false must not rely on Total.
	HasTotal bool
}

// Provider is the contract any backing store must satisfy bit-for-bit
// (§4.2). Every operation is batch-only: it is parameterized by a list of
// user IDs and returns a Response keyed by user ID. A provider never serves
// a single-user API directly — that adaptation is the Activity handle's job.
type Provider interface {
	// Store inserts ev for each user, returning true per user iff ev.Value
	// was newly inserted.
	Store(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool]

	// Delete removes the event matching ev.Value for each user, returning
	// true per user iff an event was removed.
	Delete(ctx context.Context, fc FeedContext, userIDs []string, ev Event) *Response[bool]

	// DeleteIf removes every event matching pred for each user, returning
	// the removed count per user.
	DeleteIf(ctx context.Context, fc FeedContext, userIDs []string, pred func(Event) bool) *Response[int]

	// Wipe resets each user's state to its initial form, returning true per
	// user iff prior state existed.
	Wipe(ctx context.Context, fc FeedContext, userIDs []string) *Response[bool]

	// Paginate returns a windowed, descending-order page of events per
	// user. When peek is false, last_read advances per §4.2.
	Paginate(ctx context.Context, fc FeedContext, userIDs []string, page, perPage int, peek, withTotal bool) *Response[PageResult]

	// Fetch returns the full (≤ max_size) event set per user, descending.
	Fetch(ctx context.Context, fc FeedContext, userIDs []string) *Response[[]Event]

	// ResetLastRead sets last_read for each user, never regressing it. A
	// nil at means "now".
	ResetLastRead(ctx context.Context, fc FeedContext, userIDs []string, at *float64) *Response[float64]

	// TotalCount returns |events| per user.
	TotalCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int]

	// UnreadCount returns the count of events with At > last_read per user.
	UnreadCount(ctx context.Context, fc FeedContext, userIDs []string) *Response[int]

	// LastRead returns the current watermark per user.
	LastRead(ctx context.Context, fc FeedContext, userIDs []string) *Response[float64]
}
