package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"HealthSeva/module/request/model"
	"HealthSeva/module/request/store"
	"HealthSeva/service/natsx"
)

func recv(t *testing.T, s *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-s.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot")
	}
	return Snapshot{}
}

func ids(list []*model.Request) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func startHub(t *testing.T, src Lister) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(src, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func TestSubscribeDeliversCurrentAndChanges(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	a, _ := st.Create(ctx, &model.Request{Type: model.TypeBlood, ItemName: "O+"})

	h, _ := startHub(t, st)
	sub := h.Subscribe()
	defer sub.Close()

	first := recv(t, sub)
	if len(first.Requests) != 1 || first.Requests[0].ID != a.ID {
		t.Fatalf("first snapshot = %v", ids(first.Requests))
	}

	b, _ := st.Create(ctx, &model.Request{Type: model.TypeMedic, ItemName: "Insulin"})
	h.Notify()
	for {
		snap := recv(t, sub)
		if len(snap.Requests) == 2 {
			if snap.Requests[0].ID != b.ID {
				t.Fatalf("want newest first, got %v", ids(snap.Requests))
			}
			break
		}
	}
}

func TestSlowReaderSeesLatest(t *testing.T) {
	st := store.NewMemoryStore()
	h := NewHub(st, 0)
	sub := h.Subscribe()
	defer sub.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := st.Create(ctx, &model.Request{Type: model.TypeMedic, ItemName: "x"}); err != nil {
			t.Fatal(err)
		}
		h.Refresh(ctx)
	}
	snap := recv(t, sub)
	if len(snap.Requests) != 5 || snap.Seq != 5 {
		t.Fatalf("got seq %d with %d requests, want the latest", snap.Seq, len(snap.Requests))
	}
	select {
	case extra := <-sub.C:
		t.Fatalf("unexpected queued snapshot seq %d", extra.Seq)
	default:
	}
}

func TestSnapshotsNeverGoBackwards(t *testing.T) {
	h := NewHub(store.NewMemoryStore(), 0)
	sub := h.Subscribe()
	defer sub.Close()

	sub.offer(&Snapshot{Seq: 3})
	sub.offer(&Snapshot{Seq: 2})
	if got := recv(t, sub).Seq; got != 3 {
		t.Fatalf("seq = %d, want 3", got)
	}
}

func TestListFailureYieldsEmptySnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	_, _ = st.Create(ctx, &model.Request{Type: model.TypeMedic, ItemName: "x"})
	st.SetFailure(errors.New("backend down"))

	h := NewHub(st, 0)
	sub := h.Subscribe()
	defer sub.Close()
	h.Refresh(ctx)

	snap := recv(t, sub)
	if snap.Requests == nil || len(snap.Requests) != 0 {
		t.Fatalf("want empty non-nil list, got %v", snap.Requests)
	}
}

func TestDismissIsPerSubscription(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	a, _ := st.Create(ctx, &model.Request{Type: model.TypeBlood, ItemName: "A-"})
	b, _ := st.Create(ctx, &model.Request{Type: model.TypeBlood, ItemName: "B+"})

	h := NewHub(st, 0)
	p1 := h.Subscribe()
	p2 := h.Subscribe()
	defer p1.Close()
	defer p2.Close()
	h.Refresh(ctx)
	recv(t, p1)
	recv(t, p2)

	p1.Dismiss(a.ID)
	got := recv(t, p1)
	if len(got.Requests) != 1 || got.Requests[0].ID != b.ID {
		t.Fatalf("p1 view = %v", ids(got.Requests))
	}

	h.Refresh(ctx)
	if other := recv(t, p2); len(other.Requests) != 2 {
		t.Fatalf("p2 view = %v", ids(other.Requests))
	}
	if stored, err := st.Get(ctx, a.ID); err != nil || stored.Status != model.StatusPending {
		t.Fatalf("shared record changed: %+v %v", stored, err)
	}

	// a fresh subscription starts with an empty exclusion set
	p1.Close()
	p3 := h.Subscribe()
	defer p3.Close()
	if fresh := recv(t, p3); len(fresh.Requests) != 2 {
		t.Fatalf("fresh view = %v", ids(fresh.Requests))
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	h := NewHub(store.NewMemoryStore(), 0)
	sub := h.Subscribe()
	sub.Close()
	sub.Close()

	if h.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}
	h.Refresh(context.Background())
	if _, ok := <-sub.C; ok {
		t.Fatal("channel should be closed")
	}
}

func TestRunClosesSubscriptionsOnShutdown(t *testing.T) {
	h := NewHub(store.NewMemoryStore(), 0)
	sub := h.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { h.Run(ctx); close(done) }()
	cancel()
	<-done
	for range sub.C {
	}
}

func TestNotifyCoalesces(t *testing.T) {
	h := NewHub(store.NewMemoryStore(), 0)
	for i := 0; i < 10; i++ {
		h.Notify()
	}
	if len(h.kick) != 1 {
		t.Fatalf("pending kicks = %d", len(h.kick))
	}
}

type flakyWatcher struct {
	mu    sync.Mutex
	calls int
}

func (w *flakyWatcher) Watch(ctx context.Context, changed func()) error {
	w.mu.Lock()
	w.calls++
	n := w.calls
	w.mu.Unlock()
	if n == 1 {
		return errors.New("stream broken")
	}
	changed()
	<-ctx.Done()
	return ctx.Err()
}

func TestWatchSourceRestarts(t *testing.T) {
	w := &flakyWatcher{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 4)
	go func() {
		_ = WatchSource{W: w, Backoff: time.Millisecond}.Run(ctx, func() { changes <- struct{}{} })
	}()
	// one catch-up after the restart plus one from the stream itself
	for i := 0; i < 2; i++ {
		select {
		case <-changes:
		case <-time.After(2 * time.Second):
			t.Fatal("no change after restart")
		}
	}
}

func TestNatsBridgeSkipsOwnEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handler natsx.NatsxHandler
	registered := make(chan struct{})
	var sent []natsx.NatsxMessage
	b := &NatsBridge{
		Origin: "node-a",
		Seen:   natsx.NewMemIdem(ctx, time.Minute),
		TTL:    time.Minute,
		publish: func(_ context.Context, _ string, data []byte, _ map[string]string, msgID string) error {
			sent = append(sent, natsx.NatsxMessage{Data: data, Header: map[string]string{natsx.HeaderMsgID: msgID}})
			return nil
		},
		handle: func(_ string, h natsx.NatsxHandler) error {
			handler = h
			close(registered)
			return nil
		},
	}

	var changed int
	go func() { _ = b.Run(ctx, func() { changed++ }) }()
	<-registered

	if err := b.Publish(ctx, model.Event{Kind: model.EventCreated, RequestID: "1"}); err != nil {
		t.Fatal(err)
	}
	// echo of our own publish
	if err := handler(ctx, sent[0]); err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Fatalf("own event triggered %d refreshes", changed)
	}

	remote, _ := json.Marshal(model.Event{ID: "r1", Kind: model.EventDeleted, RequestID: "2", Origin: "node-b"})
	msg := natsx.NatsxMessage{Data: remote, Header: map[string]string{natsx.HeaderMsgID: "r1"}}
	_ = handler(ctx, msg)
	_ = handler(ctx, msg) // redelivery
	if changed != 1 {
		t.Fatalf("remote event refreshes = %d, want 1", changed)
	}
}
