package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"HealthSeva/module/request/model"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/ids"
)

// MemoryStore keeps requests in process; used by tests and local runs
// without Mongo.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*model.Request
	now  func() time.Time
	gen  *ids.Generator
	fail error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*model.Request),
		now:  time.Now,
		gen:  ids.NewGenerator(1),
	}
}

// SetFailure makes every operation return err until called with nil.
func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// SetClock replaces the creation clock.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func notFound(id string) error {
	return errs.ErrRecordNotFound.WrapMsg("", "id", id)
}

func (s *MemoryStore) Create(_ context.Context, r *model.Request) (*model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	c := r.Clone()
	c.ID = s.gen.NextString()
	c.Status = model.StatusPending
	c.Responses = []model.Response{}
	c.CreatedAt = s.now().UTC()
	s.data[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	r, ok := s.data[id]
	if !ok {
		return nil, notFound(id)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*model.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]*model.Request, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idAfter(out[i].ID, out[j].ID)
	})
	return out, nil
}

// idAfter orders decimal snowflake ids numerically.
func idAfter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

func (s *MemoryStore) mutate(id string, fn func(r *model.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	r, ok := s.data[id]
	if !ok {
		return notFound(id)
	}
	fn(r)
	return nil
}

func (s *MemoryStore) Respond(_ context.Context, id string, resp model.Response) error {
	return s.mutate(id, func(r *model.Request) {
		r.Responses = append(r.Responses, resp)
		r.Status = model.StatusAccepted
	})
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.Status) error {
	return s.mutate(id, func(r *model.Request) { r.Status = status })
}

func (s *MemoryStore) Edit(_ context.Context, id string, patch model.Patch) error {
	return s.mutate(id, func(r *model.Request) { patch.Apply(r) })
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.data[id]; !ok {
		return notFound(id)
	}
	delete(s.data, id)
	return nil
}
