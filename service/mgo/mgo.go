package mgo

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"HealthSeva/data/database/mgo/mongoutil"
	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoManager owns the process-wide client: it connects in the background,
// pings periodically and reconnects after repeated failures.
type MongoManager struct {
	mu        sync.RWMutex
	client    *mongoutil.Client
	readyCh   chan struct{} // closed once, on the first successful connect
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = MongoManager{readyCh: make(chan struct{})}

const (
	baseBackoff = 200 * time.Millisecond
	maxBackoff  = 5 * time.Second
	healthEvery = 10 * time.Second
	failThresh  = 3
)

// StartAsync runs until ctx is done.
func StartAsync(ctx context.Context, cfg *mongoutil.Config) {
	go globalMgr.run(ctx, cfg)
}

func (m *MongoManager) run(ctx context.Context, cfg *mongoutil.Config) {
	for {
		if !m.connect(ctx, cfg) {
			return
		}
		if !m.watch(ctx) {
			return
		}
		logger.Warn("[Mongo] connection lost, reconnecting", zap.Error(m.Err()))
	}
}

// connect retries with jittered exponential backoff; false means ctx ended.
func (m *MongoManager) connect(ctx context.Context, cfg *mongoutil.Config) bool {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		cli, err := mongoutil.NewMongoDB(ctx, cfg)
		if err == nil {
			m.mu.Lock()
			m.client = cli
			m.mu.Unlock()
			m.readyOnce.Do(func() { close(m.readyCh) })
			logger.Info("[Mongo] connected", zap.String("database", cfg.Database))
			return true
		}
		m.lastErr.Store(err)

		backoff := baseBackoff << attempt
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(rand.Int63n(int64(backoff / 5)))
		timer := time.NewTimer(backoff - jitter/2)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		if attempt < 6 {
			attempt++
		}
	}
}

// watch pings until failThresh consecutive failures (true) or ctx ends (false).
func (m *MongoManager) watch(ctx context.Context) bool {
	fail := 0
	ticker := time.NewTicker(healthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.drop()
			return false
		case <-ticker.C:
			m.mu.RLock()
			c := m.client
			m.mu.RUnlock()
			if c == nil {
				return true
			}
			if err := c.Ping(ctx); err != nil {
				fail++
				m.lastErr.Store(err)
				if fail >= failThresh {
					m.drop()
					return true
				}
				continue
			}
			fail = 0
		}
	}
}

func (m *MongoManager) drop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Disconnect(context.Background())
		m.client = nil
	}
}

// Ready is closed after the first successful connect.
func Ready() <-chan struct{} {
	return globalMgr.readyCh
}

func Manager() *MongoManager {
	return &globalMgr
}

// Err is the most recent connect or ping error.
func Err() error {
	return globalMgr.Err()
}

func (m *MongoManager) Err() error {
	if v := m.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// Healthy reports whether a client is currently held.
func Healthy() bool {
	_, ok := TryGetDB()
	return ok
}

func GetDB() *mongo.Database {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.client == nil {
		panic("Mongo not ready: wait Ready() or use TryGetDB()")
	}
	return globalMgr.client.GetDB()
}

func TryGetDB() (*mongo.Database, bool) {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	if globalMgr.client == nil {
		return nil, false
	}
	return globalMgr.client.GetDB(), true
}

// WaitReady blocks until the first connect or ctx is done.
func WaitReady(ctx context.Context, m *MongoManager) error {
	m.mu.RLock()
	connected := m.client != nil
	m.mu.RUnlock()
	if connected {
		return nil
	}

	select {
	case <-m.readyCh:
		return nil
	case <-ctx.Done():
		return errs.ErrTransport.WrapMsg("mongo not ready", "err", ctx.Err())
	}
}
