package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"HealthSeva/module/post/model"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/ids"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*model.Post
	now  func() time.Time
	gen  *ids.Generator
	fail error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*model.Post), now: time.Now, gen: ids.NewGenerator(1)}
}

func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *MemoryStore) Create(_ context.Context, p *model.Post) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	c := p.Clone()
	c.ID = s.gen.NextString()
	c.Likes = 0
	c.Timestamp = s.now().UTC()
	s.data[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryStore) List(context.Context) ([]*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([]*model.Post, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		if len(out[i].ID) != len(out[j].ID) {
			return len(out[i].ID) > len(out[j].ID)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) mutate(id string, fn func(p *model.Post)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	p, ok := s.data[id]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("", "id", id)
	}
	fn(p)
	return nil
}

func (s *MemoryStore) Like(_ context.Context, id string) (int64, error) {
	var n int64
	err := s.mutate(id, func(p *model.Post) {
		p.Likes++
		n = p.Likes
	})
	return n, err
}

func (s *MemoryStore) EditContent(_ context.Context, id, content string) error {
	return s.mutate(id, func(p *model.Post) { p.Content = content })
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
