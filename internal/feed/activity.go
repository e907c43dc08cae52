package feed

import "context"

// batchActivity is the one internal representation both the single- and
// multi-user handles delegate to (§9's single-vs-batch polymorphism note):
// a list of user IDs bound to a feed's provider and config. No inheritance
// is used; SingleActivity and MultiActivity are thin adapters.
type batchActivity struct {
	fc       FeedContext
	provider Provider
	userIDs  []string
}

func newBatchActivity(fc FeedContext, provider Provider, userIDs []string) (*batchActivity, error) {
	if len(userIDs) == 0 {
		return nil, ArgumentErrorf("activity requires at least one user id")
	}
	for _, id := range userIDs {
		if id == "" {
			return nil, ArgumentErrorf("user id must not be empty")
		}
	}
	return &batchActivity{fc: fc, provider: provider, userIDs: userIDs}, nil
}

func (b *batchActivity) Store(ctx context.Context, ev Event) *Response[bool] {
	return b.provider.Store(ctx, b.fc, b.userIDs, ev)
}

func (b *batchActivity) Delete(ctx context.Context, ev Event) *Response[bool] {
	return b.provider.Delete(ctx, b.fc, b.userIDs, ev)
}

func (b *batchActivity) DeleteIf(ctx context.Context, pred func(Event) bool) *Response[int] {
	return b.provider.DeleteIf(ctx, b.fc, b.userIDs, pred)
}

func (b *batchActivity) Wipe(ctx context.Context) *Response[bool] {
	return b.provider.Wipe(ctx, b.fc, b.userIDs)
}

func (b *batchActivity) Paginate(ctx context.Context, page, perPage int, peek, withTotal bool) *Response[PageResult] {
	return b.provider.Paginate(ctx, b.fc, b.userIDs, page, perPage, peek, withTotal)
}

func (b *batchActivity) Fetch(ctx context.Context) *Response[[]Event] {
	return b.provider.Fetch(ctx, b.fc, b.userIDs)
}

func (b *batchActivity) ResetLastRead(ctx context.Context, at *float64) *Response[float64] {
	return b.provider.ResetLastRead(ctx, b.fc, b.userIDs, at)
}

func (b *batchActivity) TotalCount(ctx context.Context) *Response[int] {
	return b.provider.TotalCount(ctx, b.fc, b.userIDs)
}

func (b *batchActivity) UnreadCount(ctx context.Context) *Response[int] {
	return b.provider.UnreadCount(ctx, b.fc, b.userIDs)
}

func (b *batchActivity) LastRead(ctx context.Context) *Response[float64] {
	return b.provider.LastRead(ctx, b.fc, b.userIDs)
}

// SingleActivity wraps a one-user batchActivity, unwrapping every Response
// to that user's scalar value (or returning that user's captured error)
// instead of exposing the Response shape.
type SingleActivity struct {
	inner  *batchActivity
	userID string
}

// NewSingleActivity constructs a single-user Activity handle.
func NewSingleActivity(fc FeedContext, provider Provider, userID string) (*SingleActivity, error) {
	b, err := newBatchActivity(fc, provider, []string{userID})
	if err != nil {
		return nil, err
	}
	return &SingleActivity{inner: b, userID: userID}, nil
}

func unwrap[T any](userID string, r *Response[T]) (T, error) {
	v, ok := r.Value(userID)
	if ok {
		return v, nil
	}
	if err := r.Err(userID); err != nil {
		var zero T
		return zero, err
	}
	var zero T
	return zero, TimeoutError("no result for user")
}

func (s *SingleActivity) Store(ctx context.Context, ev Event) (bool, error) {
	return unwrap(s.userID, s.inner.Store(ctx, ev))
}

func (s *SingleActivity) Delete(ctx context.Context, ev Event) (bool, error) {
	return unwrap(s.userID, s.inner.Delete(ctx, ev))
}

func (s *SingleActivity) DeleteIf(ctx context.Context, pred func(Event) bool) (int, error) {
	return unwrap(s.userID, s.inner.DeleteIf(ctx, pred))
}

func (s *SingleActivity) Wipe(ctx context.Context) (bool, error) {
	return unwrap(s.userID, s.inner.Wipe(ctx))
}

func (s *SingleActivity) Paginate(ctx context.Context, page, perPage int, peek, withTotal bool) (PageResult, error) {
	return unwrap(s.userID, s.inner.Paginate(ctx, page, perPage, peek, withTotal))
}

func (s *SingleActivity) Fetch(ctx context.Context) ([]Event, error) {
	return unwrap(s.userID, s.inner.Fetch(ctx))
}

func (s *SingleActivity) ResetLastRead(ctx context.Context, at *float64) (float64, error) {
	return unwrap(s.userID, s.inner.ResetLastRead(ctx, at))
}

func (s *SingleActivity) TotalCount(ctx context.Context) (int, error) {
	return unwrap(s.userID, s.inner.TotalCount(ctx))
}

func (s *SingleActivity) UnreadCount(ctx context.Context) (int, error) {
	return unwrap(s.userID, s.inner.UnreadCount(ctx))
}

func (s *SingleActivity) LastRead(ctx context.Context) (float64, error) {
	return unwrap(s.userID, s.inner.LastRead(ctx))
}

// MultiActivity wraps an N-user batchActivity, returning the Response
// unchanged for every operation.
type MultiActivity struct {
	inner *batchActivity
}

// NewMultiActivity constructs a multi-user Activity handle.
func NewMultiActivity(fc FeedContext, provider Provider, userIDs []string) (*MultiActivity, error) {
	b, err := newBatchActivity(fc, provider, userIDs)
	if err != nil {
		return nil, err
	}
	return &MultiActivity{inner: b}, nil
}

func (m *MultiActivity) Store(ctx context.Context, ev Event) *Response[bool] {
	return m.inner.Store(ctx, ev)
}

func (m *MultiActivity) Delete(ctx context.Context, ev Event) *Response[bool] {
	return m.inner.Delete(ctx, ev)
}

func (m *MultiActivity) DeleteIf(ctx context.Context, pred func(Event) bool) *Response[int] {
	return m.inner.DeleteIf(ctx, pred)
}

func (m *MultiActivity) Wipe(ctx context.Context) *Response[bool] {
	return m.inner.Wipe(ctx)
}

func (m *MultiActivity) Paginate(ctx context.Context, page, perPage int, peek, withTotal bool) *Response[PageResult] {
	return m.inner.Paginate(ctx, page, perPage, peek, withTotal)
}

func (m *MultiActivity) Fetch(ctx context.Context) *Response[[]Event] {
	return m.inner.Fetch(ctx)
}

func (m *MultiActivity) ResetLastRead(ctx context.Context, at *float64) *Response[float64] {
	return m.inner.ResetLastRead(ctx, at)
}

func (m *MultiActivity) TotalCount(ctx context.Context) *Response[int] {
	return m.inner.TotalCount(ctx)
}

func (m *MultiActivity) UnreadCount(ctx context.Context) *Response[int] {
	return m.inner.UnreadCount(ctx)
}

func (m *MultiActivity) LastRead(ctx context.Context) *Response[float64] {
	return m.inner.LastRead(ctx)
}
