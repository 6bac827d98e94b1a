package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"HealthSeva/module/hospital/model"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/ids"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*model.Hospital
	now  func() time.Time
	gen  *ids.Generator
	fail error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*model.Hospital), now: time.Now, gen: ids.NewGenerator(1)}
}

func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *MemoryStore) Create(_ context.Context, h *model.Hospital) (*model.Hospital, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	c := h.Clone()
	c.ID = s.gen.NextString()
	c.CreatedAt = s.now().UTC()
	s.data[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryStore) List(context.Context) ([]*model.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]*model.Hospital, 0, len(s.data))
	for _, h := range s.data {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) > len(out[j].ID)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if _, ok := s.data[id]; !ok {
		return errs.ErrRecordNotFound.WrapMsg("", "id", id)
	}
	delete(s.data, id)
	return nil
}
