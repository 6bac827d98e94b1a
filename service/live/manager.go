// Package live keeps track of websocket connections: who they belong to,
// how long an unauthenticated one may stay, and presence of signed-in users.
package live

import (
	"context"
	"sync"
	"time"

	"HealthSeva/logger"
	"HealthSeva/service/storage"
	"HealthSeva/tools/ids"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Conf struct {
	UnauthTTL    time.Duration // how long a connection may stay signed out
	SweepEvery   time.Duration
	PresenceTTL  time.Duration
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	MaxMessage   int64
	MaxPerUser   int // <= 0 means unlimited; the oldest connection is evicted
	SendQueue    int
	Clock        func() time.Time
}

func (c *Conf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.UnauthTTL <= 0 {
		c.UnauthTTL = 60 * time.Second
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 10 * time.Second
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 3 * c.SweepEvery
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval * 3
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = 64 << 10
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 16
	}
}

type Manager struct {
	conf     Conf
	presence storage.Presence

	mu     sync.Mutex
	conns  map[string]*Conn
	byUser map[string]map[string]*Conn
}

// NewManager builds a manager; presence may be nil.
func NewManager(conf Conf, presence storage.Presence) *Manager {
	conf.norm()
	return &Manager{
		conf:     conf,
		presence: presence,
		conns:    make(map[string]*Conn),
		byUser:   make(map[string]map[string]*Conn),
	}
}

// Accept registers ws as a signed-out connection and starts its writer.
func (m *Manager) Accept(ws *websocket.Conn) *Conn {
	now := m.conf.Clock()
	c := &Conn{
		ID:        ids.GenerateString(),
		ws:        ws,
		send:      make(chan []byte, m.conf.SendQueue),
		done:      make(chan struct{}),
		createdAt: now,
		expireAt:  now.Add(m.conf.UnauthTTL),
	}
	m.mu.Lock()
	m.conns[c.ID] = c
	m.mu.Unlock()
	go m.writePump(c)
	return c
}

// Bind attaches c to userID, evicting that user's oldest connection when
// the per-user limit is reached.
func (m *Manager) Bind(ctx context.Context, c *Conn, userID string) {
	m.mu.Lock()
	if c.userID != "" && c.userID != userID {
		m.unbindLocked(c)
	}
	c.userID = userID
	c.expireAt = time.Time{}
	set := m.byUser[userID]
	if set == nil {
		set = make(map[string]*Conn)
		m.byUser[userID] = set
	}
	var evicted *Conn
	if _, ok := set[c.ID]; !ok && m.conf.MaxPerUser > 0 && len(set) >= m.conf.MaxPerUser {
		for _, o := range set {
			if evicted == nil || o.createdAt.Before(evicted.createdAt) {
				evicted = o
			}
		}
		delete(set, evicted.ID)
		delete(m.conns, evicted.ID)
		evicted.userID = ""
	}
	set[c.ID] = c
	m.mu.Unlock()

	if evicted != nil {
		logger.Info("[Live] evicted oldest connection", zap.String("user", userID), zap.String("conn", evicted.ID))
		evicted.shutdown()
	}
	m.markOnline(ctx, userID)
}

// Unbind returns c to the signed-out state with a fresh grace period.
func (m *Manager) Unbind(ctx context.Context, c *Conn) {
	m.mu.Lock()
	user, last := m.unbindLocked(c)
	c.expireAt = m.conf.Clock().Add(m.conf.UnauthTTL)
	m.mu.Unlock()
	if last {
		m.markOffline(ctx, user)
	}
}

// unbindLocked reports the user c was bound to and whether it was that
// user's last connection.
func (m *Manager) unbindLocked(c *Conn) (string, bool) {
	user := c.userID
	if user == "" {
		return "", false
	}
	c.userID = ""
	set := m.byUser[user]
	delete(set, c.ID)
	if len(set) == 0 {
		delete(m.byUser, user)
		return user, true
	}
	return user, false
}

// Remove forgets c and stops its writer.
func (m *Manager) Remove(ctx context.Context, c *Conn) {
	m.mu.Lock()
	delete(m.conns, c.ID)
	user, last := m.unbindLocked(c)
	m.mu.Unlock()
	c.shutdown()
	if last {
		m.markOffline(ctx, user)
	}
}

// Run sweeps expired signed-out connections and renews presence until ctx
// is done, then closes every connection.
func (m *Manager) Run(ctx context.Context) {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-t.C:
			m.sweepOnce(ctx, m.conf.Clock())
		}
	}
}

func (m *Manager) sweepOnce(ctx context.Context, now time.Time) {
	var expired []*Conn
	var users []string
	m.mu.Lock()
	for id, c := range m.conns {
		if !c.expireAt.IsZero() && now.After(c.expireAt) {
			expired = append(expired, c)
			delete(m.conns, id)
		}
	}
	for u := range m.byUser {
		users = append(users, u)
	}
	m.mu.Unlock()

	for _, c := range expired {
		logger.Debug("[Live] closing unauthenticated connection", zap.String("conn", c.ID))
		c.shutdown()
	}
	for _, u := range users {
		m.markOnline(ctx, u)
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]*Conn)
	m.byUser = make(map[string]map[string]*Conn)
	m.mu.Unlock()
	for _, c := range conns {
		c.shutdown()
	}
}

// Stats returns the number of connections and of signed-in users.
func (m *Manager) Stats() (conns, users int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns), len(m.byUser)
}

func (m *Manager) markOnline(ctx context.Context, user string) {
	if m.presence == nil {
		return
	}
	if err := m.presence.Online(ctx, user, m.conf.PresenceTTL); err != nil {
		logger.Warn("[Live] presence online failed", zap.String("user", user), zap.Error(err))
	}
}

func (m *Manager) markOffline(ctx context.Context, user string) {
	if m.presence == nil {
		return
	}
	if err := m.presence.Offline(ctx, user); err != nil {
		logger.Warn("[Live] presence offline failed", zap.String("user", user), zap.Error(err))
	}
}
