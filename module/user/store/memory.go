package store

import (
	"context"
	"sync"
	"time"

	"HealthSeva/module/user/model"
	"HealthSeva/tools/errs"
)

type MemoryProfiles struct {
	mu   sync.RWMutex
	data map[string]*model.Profile
	fail error
}

var _ ProfileStore = (*MemoryProfiles)(nil)

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{data: make(map[string]*model.Profile)}
}

// SetFailure makes every operation return err until called with nil.
func (s *MemoryProfiles) SetFailure(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *MemoryProfiles) Get(_ context.Context, id string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return nil, s.fail
	}
	p, ok := s.data[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("", "profile", id)
	}
	return p.Clone(), nil
}

func (s *MemoryProfiles) SignIn(_ context.Context, p *model.Profile) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	if cur, ok := s.data[p.ID]; ok {
		cur.Role = p.Role
		return cur.Clone(), nil
	}
	c := p.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.data[c.ID] = c
	return c.Clone(), nil
}

func (s *MemoryProfiles) Update(_ context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	p, ok := s.data[id]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("", "profile", id)
	}
	u.Apply(p)
	return p.Clone(), nil
}

func (s *MemoryProfiles) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fail != nil {
		return 0, s.fail
	}
	return int64(len(s.data)), nil
}

type memToken struct {
	s   model.UserSession
	exp time.Time
}

// MemoryTokens is a single-process TokenRegistry.
type MemoryTokens struct {
	mu  sync.Mutex
	m   map[string]memToken
	now func() time.Time
}

var _ TokenRegistry = (*MemoryTokens)(nil)

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{m: make(map[string]memToken), now: time.Now}
}

func (t *MemoryTokens) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

func (t *MemoryTokens) Put(_ context.Context, s *model.UserSession, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[s.AccessTokenHash] = memToken{s: *s, exp: t.now().Add(ttl)}
	return nil
}

func (t *MemoryTokens) Get(_ context.Context, hash string) (*model.UserSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.m[hash]
	if !ok || !t.now().Before(e.exp) {
		delete(t.m, hash)
		return nil, errs.ErrTokenInvalid.WrapMsg("token not registered")
	}
	s := e.s
	return &s, nil
}

func (t *MemoryTokens) Revoke(_ context.Context, hash string) (*model.UserSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.m[hash]
	if !ok {
		return nil, errs.ErrTokenInvalid.WrapMsg("token not registered")
	}
	delete(t.m, hash)
	s := e.s
	return &s, nil
}

// MemorySessionLog keeps the history in a slice.
type MemorySessionLog struct {
	mu      sync.Mutex
	Entries []model.UserSession
}

func (l *MemorySessionLog) Append(_ context.Context, s *model.UserSession) error {
	l.mu.Lock()
	l.Entries = append(l.Entries, *s)
	l.mu.Unlock()
	return nil
}

func (l *MemorySessionLog) Snapshot() []model.UserSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.UserSession(nil), l.Entries...)
}
