package feed

import (
	"sync"

	"HealthSeva/module/request/model"
)

// Subscription is one live view of the request list. C holds at most one
// pending snapshot: a newer one replaces an unread older one, so a slow
// reader always sees the latest state and order is preserved.
//
// Dismissed ids are filtered out of every snapshot on C. The set lives only
// as long as the subscription.
type Subscription struct {
	C <-chan Snapshot

	ch  chan Snapshot
	hub *Hub

	mu        sync.Mutex
	dismissed map[string]struct{}
	last      *Snapshot
	closed    bool
	once      sync.Once
}

func newSubscription(h *Hub) *Subscription {
	ch := make(chan Snapshot, 1)
	return &Subscription{
		C:         ch,
		ch:        ch,
		hub:       h,
		dismissed: make(map[string]struct{}),
	}
}

// offer delivers snap unless a newer one was already delivered.
func (s *Subscription) offer(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.last != nil && snap.Seq < s.last.Seq) {
		return
	}
	s.last = snap
	s.deliverLocked()
}

func (s *Subscription) deliverLocked() {
	view := Snapshot{Seq: s.last.Seq, Requests: s.filterLocked(s.last.Requests)}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- view
}

func (s *Subscription) filterLocked(list []*model.Request) []*model.Request {
	out := make([]*model.Request, 0, len(list))
	for _, r := range list {
		if _, ok := s.dismissed[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dismiss hides id from this subscription only and re-delivers the current
// view. The shared record is untouched.
func (s *Subscription) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dismissed[id] = struct{}{}
	if s.last != nil {
		s.deliverLocked()
	}
}

// Dismissed returns a copy of the exclusion set.
func (s *Subscription) Dismissed() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.dismissed))
	for id := range s.dismissed {
		out[id] = struct{}{}
	}
	return out
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
	s.shutdown()
}

func (s *Subscription) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
