package feed

import (
	"context"
	"sync"
	"time"

	"HealthSeva/logger"
	"HealthSeva/module/request/model"

	"go.uber.org/zap"
)

// Lister is the read side of the request store.
type Lister interface {
	List(ctx context.Context) ([]*model.Request, error)
}

// Snapshot is the full newest-first request list at one point. Seq grows with
// every refresh the hub performs.
type Snapshot struct {
	Seq      uint64
	Requests []*model.Request
}

// Hub re-lists the store after every Notify and pushes the result to all
// subscriptions. Notifies arriving during a refresh coalesce into one more.
type Hub struct {
	src      Lister
	debounce time.Duration
	timeout  time.Duration
	kick     chan struct{}

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	latest *Snapshot
	seq    uint64
}

func NewHub(src Lister, debounce time.Duration) *Hub {
	return &Hub{
		src:      src,
		debounce: debounce,
		timeout:  5 * time.Second,
		kick:     make(chan struct{}, 1),
		subs:     make(map[*Subscription]struct{}),
	}
}

// Notify schedules a refresh; it never blocks.
func (h *Hub) Notify() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

// Run performs refreshes until ctx is done, starting with one immediately.
func (h *Hub) Run(ctx context.Context) {
	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.kick:
		}
		if h.debounce > 0 {
			t := time.NewTimer(h.debounce)
			select {
			case <-ctx.Done():
				t.Stop()
				h.closeAll()
				return
			case <-t.C:
			}
			// the window absorbed any kicks that arrived meanwhile
			select {
			case <-h.kick:
			default:
			}
		}
		h.Refresh(ctx)
	}
}

// Refresh lists the store once and broadcasts. A failed list is logged and
// broadcast as an empty snapshot.
func (h *Hub) Refresh(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, h.timeout)
	list, err := h.src.List(lctx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("[Feed] list failed, publishing empty snapshot", zap.Error(err))
		list = []*model.Request{}
	}

	h.mu.Lock()
	h.seq++
	snap := &Snapshot{Seq: h.seq, Requests: list}
	h.latest = snap
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.offer(snap)
	}
}

// Subscribe registers a new view. The current snapshot, when the hub has one,
// is queued right away; otherwise a refresh is scheduled.
func (h *Hub) Subscribe() *Subscription {
	s := newSubscription(h)
	h.mu.Lock()
	h.subs[s] = struct{}{}
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		s.offer(latest)
	} else {
		h.Notify()
	}
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()
	for s := range subs {
		s.shutdown()
	}
}

// Subscribers is the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
