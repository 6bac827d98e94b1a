package redis

import (
	"context"
	"sync"
	"time"

	"HealthSeva/tools/errs"

	"github.com/redis/go-redis/v9"
)

var (
	redisMu  sync.Mutex
	redisMgr *RedisManager
)

type RedisManager struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// InitRedis connects the process-wide client once; a failed ping leaves it
// uninitialized so a later call can retry.
func InitRedis(c Config) error {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr != nil {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return errs.ErrTransport.WrapMsg("redis ping", "addr", c.Addr, "err", err)
	}

	redisMgr = &RedisManager{client: rdb}
	return nil
}

// GetRedis panics before InitRedis succeeded; use TryGetRedis on optional paths.
func GetRedis() *redis.Client {
	c, ok := TryGetRedis()
	if !ok {
		panic("Redis not initialized, call InitRedis first")
	}
	return c
}

func TryGetRedis() (*redis.Client, bool) {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr == nil {
		return nil, false
	}
	return redisMgr.client, true
}

func CloseRedis() error {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisMgr != nil && redisMgr.client != nil {
		err := redisMgr.client.Close()
		redisMgr = nil
		return err
	}
	return nil
}
