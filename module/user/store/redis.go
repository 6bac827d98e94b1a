package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"HealthSeva/logger"
	"HealthSeva/module/user/model"
	"HealthSeva/tools/errs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func tokenKey(hash string) string { return "hs:token:" + hash }

func profileKey(id string) string { return "hs:profile:" + id }

// RedisTokens stores each issued session under its token hash with the
// token's lifetime as TTL.
type RedisTokens struct {
	rdb *redis.Client
}

var _ TokenRegistry = (*RedisTokens)(nil)

func NewRedisTokens(rdb *redis.Client) *RedisTokens {
	return &RedisTokens{rdb: rdb}
}

func (t *RedisTokens) Put(ctx context.Context, s *model.UserSession, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return errs.Wrap(err)
	}
	if err := t.rdb.Set(ctx, tokenKey(s.AccessTokenHash), b, ttl).Err(); err != nil {
		return errs.ErrTransport.WrapMsg("redis set", "err", err)
	}
	return nil
}

func (t *RedisTokens) Get(ctx context.Context, hash string) (*model.UserSession, error) {
	b, err := t.rdb.Get(ctx, tokenKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrTokenInvalid.WrapMsg("token not registered")
	}
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("redis get", "err", err)
	}
	return decodeSession(b)
}

// decodeSession treats an unreadable record like an unregistered token.
func decodeSession(b []byte) (*model.UserSession, error) {
	var s model.UserSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errs.ErrTokenInvalid.WrapMsg("corrupt session record", "err", err)
	}
	return &s, nil
}

func (t *RedisTokens) Revoke(ctx context.Context, hash string) (*model.UserSession, error) {
	b, err := t.rdb.GetDel(ctx, tokenKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrTokenInvalid.WrapMsg("token not registered")
	}
	if err != nil {
		return nil, errs.ErrTransport.WrapMsg("redis getdel", "err", err)
	}
	return decodeSession(b)
}

// CachedProfiles puts a read-through Redis cache in front of a ProfileStore.
// Cache errors are logged and fall back to the store.
type CachedProfiles struct {
	ProfileStore
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedProfiles(inner ProfileStore, rdb *redis.Client, ttl time.Duration) *CachedProfiles {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProfiles{ProfileStore: inner, rdb: rdb, ttl: ttl}
}

func (c *CachedProfiles) Get(ctx context.Context, id string) (*model.Profile, error) {
	b, err := c.rdb.Get(ctx, profileKey(id)).Bytes()
	if err == nil {
		var p model.Profile
		if json.Unmarshal(b, &p) == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Warn("[Profiles] cache read failed", zap.String("id", id), zap.Error(err))
	}

	p, err := c.ProfileStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, p)
	return p, nil
}

func (c *CachedProfiles) SignIn(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	out, err := c.ProfileStore.SignIn(ctx, p)
	if err != nil {
		return nil, err
	}
	c.put(ctx, out)
	return out, nil
}

func (c *CachedProfiles) Update(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	out, err := c.ProfileStore.Update(ctx, id, u)
	if err != nil {
		c.evict(ctx, id)
		return nil, err
	}
	c.put(ctx, out)
	return out, nil
}

func (c *CachedProfiles) put(ctx context.Context, p *model.Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, profileKey(p.ID), b, c.ttl).Err(); err != nil {
		logger.Warn("[Profiles] cache write failed", zap.String("id", p.ID), zap.Error(err))
	}
}

func (c *CachedProfiles) evict(ctx context.Context, id string) {
	if err := c.rdb.Del(ctx, profileKey(id)).Err(); err != nil {
		logger.Warn("[Profiles] cache evict failed", zap.String("id", id), zap.Error(err))
	}
}
