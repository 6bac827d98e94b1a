package registry

import (
	"context"
	"math/rand"
	"time"

	"HealthSeva/logger"

	"go.uber.org/zap"
)

const ttlNotePass = "pass"

// ServiceManager keeps this process registered: register, heartbeat at half
// the TTL, deregister on shutdown.
type ServiceManager struct {
	reg  Registry
	self Instance
	opts RegisterOptions
	// healthy gates the heartbeat status; nil means always passing
	healthy func() bool
}

func New(reg Registry, self Instance, opts RegisterOptions, healthy func() bool) *ServiceManager {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	return &ServiceManager{reg: reg, self: self, opts: opts, healthy: healthy}
}

func (m *ServiceManager) Self() Instance { return m.self }

// Peers lists the healthy instances of this service, self included.
func (m *ServiceManager) Peers(ctx context.Context) ([]Instance, error) {
	return m.reg.List(ctx, m.self.Service)
}

// BootBlocking registers, reports TTL until ctx is done, then deregisters and
// closes the backend.
func (m *ServiceManager) BootBlocking(ctx context.Context) error {
	if err := m.reg.Register(ctx, m.self, m.opts); err != nil {
		return err
	}
	logger.Info("[Registry] registered", zap.String("service", m.self.Service), zap.String("id", m.self.ID))

	m.report()
	base := m.opts.TTL / 2
	if base < time.Second {
		base = time.Second
	}
	tick := time.NewTicker(base)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			time.Sleep(time.Duration(rand.Int63n(int64(base / 4))))
			m.report()
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := m.reg.Deregister(stopCtx, m.self.Service, m.self.ID)
			cancel()
			if err != nil {
				logger.Warn("[Registry] deregister failed", zap.Error(err))
			}
			return m.reg.Close()
		}
	}
}

func (m *ServiceManager) report() {
	status := "passing"
	if m.healthy != nil && !m.healthy() {
		status = "critical"
	}
	if err := m.reg.UpdateTTL(CheckID(m.self.ID), ttlNotePass, status); err != nil {
		logger.Error("[Registry] ttl update failed", zap.String("id", m.self.ID), zap.Error(err))
	}
}
