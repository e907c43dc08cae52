package feed

// userFeedState is one (feed, user_id)'s mutable state: the ordered set of
// events plus the last_read watermark. It is not safe for concurrent use by
// itself; callers (the in-memory provider) hold a per-user mutex around it.
type userFeedState struct {
	events   *orderedSet
	lastRead float64
	maxSize  int
}

func newUserFeedState(maxSize int) *userFeedState {
	return &userFeedState{
		events:   newOrderedSet(),
		lastRead: 0.0,
		maxSize:  maxSize,
	}
}

// store inserts ev, trimming the oldest entry if capacity is exceeded.
// Returns true iff ev.Value was newly inserted, matching §4.2's store
// contract: a duplicate leaves the set untouched (no trim, no score
// update).
func (u *userFeedState) store(ev Event) bool {
	inserted := u.events.Insert(ev.Value, ev.At)
	if !inserted {
		return false
	}
	for u.events.Len() > u.maxSize {
		u.events.DeleteOldest()
	}
	return true
}

func (u *userFeedState) delete(ev Event) bool {
	return u.events.Delete(ev.Value)
}

// deleteIf invokes pred once per event currently stored and removes every
// event for which it returns true, returning the removed count.
func (u *userFeedState) deleteIf(pred func(Event) bool) int {
	matched := make([]string, 0)
	for _, ev := range u.events.All() {
		if pred(ev) {
			matched = append(matched, ev.Value)
		}
	}
	for _, v := range matched {
		u.events.Delete(v)
	}
	return len(matched)
}

// wipe resets state to its freshly-created form, per invariant I6.
func (u *userFeedState) wipe() bool {
	existed := u.events.Len() > 0 || u.lastRead != 0
	u.events = newOrderedSet()
	u.lastRead = 0
	return existed
}

// paginate returns the window [(page-1)*perPage, page*perPage) of events in
// descending order. When peek is false, last_read advances to the max score
// of the returned page (never regressing), per §4.2 and property P6.
func (u *userFeedState) paginate(page, perPage int, peek bool) []Event {
	start := (page - 1) * perPage
	end := start + perPage
	window := u.events.Range(start, end)
	if !peek && len(window) > 0 {
		// window[0] holds the highest score in the page since Range walks
		// in descending order.
		if window[0].At > u.lastRead {
			u.lastRead = window[0].At
		}
	}
	return window
}

func (u *userFeedState) fetch() []Event {
	return u.events.All()
}

// resetLastRead sets last_read to at (or now, if at is nil), never letting
// it regress, per invariant I5.
func (u *userFeedState) resetLastRead(at *float64) float64 {
	target := nowScore()
	if at != nil {
		target = *at
	}
	if target > u.lastRead {
		u.lastRead = target
	}
	return u.lastRead
}

func (u *userFeedState) totalCount() int {
	return u.events.Len()
}

func (u *userFeedState) unreadCount() int {
	return u.events.CountAbove(u.lastRead)
}

func (u *userFeedState) lastReadAt() float64 {
	return u.lastRead
}
