package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"HealthSeva/service/storage"

	"github.com/gorilla/websocket"
)

// harness accepts websocket connections into m and hands them to the test.
type harness struct {
	m     *Manager
	srv   *httptest.Server
	conns chan *Conn
	mu    sync.Mutex
	dials []*websocket.Conn
}

func newHarness(t *testing.T, conf Conf, presence storage.Presence) *harness {
	t.Helper()
	h := &harness{m: NewManager(conf, presence), conns: make(chan *Conn, 8)}
	up := websocket.Upgrader{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := h.m.Accept(ws)
		h.m.PrepareRead(c)
		h.conns <- c
		// drain until the connection dies so pongs and closes are processed
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				h.m.Remove(context.Background(), c)
				return
			}
		}
	}))
	t.Cleanup(func() {
		h.mu.Lock()
		for _, d := range h.dials {
			_ = d.Close()
		}
		h.mu.Unlock()
		h.srv.Close()
	})
	return h
}

func (h *harness) dial(t *testing.T) (*websocket.Conn, *Conn) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.mu.Lock()
	h.dials = append(h.dials, ws)
	h.mu.Unlock()
	select {
	case c := <-h.conns:
		return ws, c
	case <-time.After(2 * time.Second):
		t.Fatal("server did not accept")
	}
	return nil, nil
}

func closed(c *Conn) bool {
	select {
	case <-c.Done():
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestSendReachesClient(t *testing.T) {
	h := newHarness(t, Conf{}, nil)
	client, c := h.dial(t)

	if err := c.Send(context.Background(), map[string]string{"type": "hello"}); err != nil {
		t.Fatal(err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := client.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"type":"hello"}` {
		t.Fatalf("frame = %s", b)
	}
}

func TestBindAndPresence(t *testing.T) {
	presence := storage.NewMemoryPresence()
	h := newHarness(t, Conf{}, presence)
	_, c1 := h.dial(t)
	_, c2 := h.dial(t)
	ctx := context.Background()

	h.m.Bind(ctx, c1, "alice")
	h.m.Bind(ctx, c2, "alice")
	if conns, users := h.m.Stats(); conns != 2 || users != 1 {
		t.Fatalf("stats = %d conns %d users", conns, users)
	}
	if n, _ := presence.Count(ctx); n != 1 {
		t.Fatalf("presence = %d", n)
	}

	h.m.Unbind(ctx, c1)
	if n, _ := presence.Count(ctx); n != 1 {
		t.Fatal("alice still has a connection")
	}
	h.m.Remove(ctx, c2)
	if n, _ := presence.Count(ctx); n != 0 {
		t.Fatalf("presence after last connection = %d", n)
	}
}

func TestMaxPerUserEvictsOldest(t *testing.T) {
	h := newHarness(t, Conf{MaxPerUser: 1}, nil)
	_, c1 := h.dial(t)
	_, c2 := h.dial(t)
	ctx := context.Background()

	h.m.Bind(ctx, c1, "bob")
	h.m.Bind(ctx, c2, "bob")
	if !closed(c1) {
		t.Fatal("oldest connection not evicted")
	}
	select {
	case <-c2.Done():
		t.Fatal("newest connection closed")
	default:
	}
}

func TestSweepClosesSignedOut(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	h := newHarness(t, Conf{UnauthTTL: time.Minute, Clock: clock}, nil)
	_, anon := h.dial(t)
	_, authed := h.dial(t)
	h.m.Bind(context.Background(), authed, "carol")

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	h.m.sweepOnce(context.Background(), clock())

	if !closed(anon) {
		t.Fatal("signed-out connection survived the sweep")
	}
	select {
	case <-authed.Done():
		t.Fatal("signed-in connection was swept")
	default:
	}
}
