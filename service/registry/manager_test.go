package registry

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeRegistry struct {
	mu           sync.Mutex
	registered   map[string]Instance
	ttlStatus    []string
	deregistered []string
	closed       bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: map[string]Instance{}}
}

func (f *fakeRegistry) Register(_ context.Context, inst Instance, _ RegisterOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered[inst.ID] = inst
	return nil
}

func (f *fakeRegistry) Deregister(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registered, id)
	f.deregistered = append(f.deregistered, id)
	return nil
}

func (f *fakeRegistry) List(_ context.Context, service string) ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Instance
	for _, in := range f.registered {
		if in.Service == service {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeRegistry) UpdateTTL(checkID, _ string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttlStatus = append(f.ttlStatus, checkID+"="+status)
	return nil
}

func (f *fakeRegistry) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestBootBlockingLifecycle(t *testing.T) {
	reg := newFakeRegistry()
	self := Instance{Service: "healthseva", ID: "hs-1", Address: "127.0.0.1", Port: 8080}
	m := New(reg, self, RegisterOptions{}, func() bool { return false })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.BootBlocking(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		peers, _ := m.Peers(context.Background())
		if len(peers) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("instance never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("boot: %v", err)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if !reg.closed || len(reg.deregistered) != 1 || reg.deregistered[0] != "hs-1" {
		t.Fatalf("shutdown not clean: closed=%v deregistered=%v", reg.closed, reg.deregistered)
	}
	if len(reg.ttlStatus) == 0 || reg.ttlStatus[0] != "service:hs-1=critical" {
		t.Fatalf("ttl reports = %v", reg.ttlStatus)
	}
}
