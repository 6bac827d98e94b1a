package storage

import (
	"context"
	"strconv"
	"sync"
	"time"

	"HealthSeva/tools/errs"

	"github.com/redis/go-redis/v9"
)

// Presence tracks which identities hold a live connection. An entry lives
// until its TTL runs out unless it is renewed.
type Presence interface {
	Online(ctx context.Context, userID string, ttl time.Duration) error
	Offline(ctx context.Context, userID string) error
	Count(ctx context.Context) (int64, error)
}

// presence key: one sorted set, member = identity, score = expiry in ms
const presenceKey = "hs:presence"

type RedisPresence struct {
	rdb *redis.Client
	now func() time.Time
}

var _ Presence = (*RedisPresence)(nil)

func NewRedisPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb, now: time.Now}
}

func (p *RedisPresence) Online(ctx context.Context, userID string, ttl time.Duration) error {
	exp := p.now().Add(ttl).UnixMilli()
	if err := p.rdb.ZAdd(ctx, presenceKey, redis.Z{Score: float64(exp), Member: userID}).Err(); err != nil {
		return errs.ErrTransport.WrapMsg("presence online", "err", err)
	}
	return nil
}

func (p *RedisPresence) Offline(ctx context.Context, userID string) error {
	if err := p.rdb.ZRem(ctx, presenceKey, userID).Err(); err != nil {
		return errs.ErrTransport.WrapMsg("presence offline", "err", err)
	}
	return nil
}

// Count drops expired members and counts the rest.
func (p *RedisPresence) Count(ctx context.Context) (int64, error) {
	now := strconv.FormatInt(p.now().UnixMilli(), 10)
	pipe := p.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, presenceKey, "-inf", now)
	card := pipe.ZCard(ctx, presenceKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errs.ErrTransport.WrapMsg("presence count", "err", err)
	}
	return card.Val(), nil
}

// MemoryPresence is the single-process Presence.
type MemoryPresence struct {
	mu  sync.Mutex
	m   map[string]time.Time
	now func() time.Time
}

var _ Presence = (*MemoryPresence)(nil)

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{m: make(map[string]time.Time), now: time.Now}
}

func (p *MemoryPresence) SetClock(now func() time.Time) {
	p.mu.Lock()
	p.now = now
	p.mu.Unlock()
}

func (p *MemoryPresence) Online(_ context.Context, userID string, ttl time.Duration) error {
	p.mu.Lock()
	p.m[userID] = p.now().Add(ttl)
	p.mu.Unlock()
	return nil
}

func (p *MemoryPresence) Offline(_ context.Context, userID string) error {
	p.mu.Lock()
	delete(p.m, userID)
	p.mu.Unlock()
	return nil
}

func (p *MemoryPresence) Count(context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for id, exp := range p.m {
		if !now.Before(exp) {
			delete(p.m, id)
		}
	}
	return int64(len(p.m)), nil
}
