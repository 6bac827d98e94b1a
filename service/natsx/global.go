package natsx

import (
	"context"
	"sync"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"go.uber.org/zap"
)

var (
	globalMgr *NatsManager

	mu              sync.Mutex
	pendingRoutes   = make(map[string]NatsxRoute)     // registered before StartNats
	pendingHandlers = make(map[string][]NatsxHandler) // subscribed before StartNats
	registeredBiz   = make(map[string]struct{})
)

// StartNats connects the process-wide manager and applies the routes and
// handlers registered before it. A second call is a no-op.
func StartNats(cfg NatsxConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr != nil {
		return nil
	}

	mgr, err := NewNatsManager(cfg)
	if err != nil {
		return err
	}
	globalMgr = mgr

	for biz, r := range pendingRoutes {
		if err := globalMgr.RegisterRoute(r); err != nil {
			logger.Error("[Natsx] register route failed", zap.String("biz", biz), zap.Error(err))
		}
	}
	for biz, hs := range pendingHandlers {
		for _, h := range hs {
			if err := globalMgr.Subscribe(biz, h); err != nil {
				logger.Error("[Natsx] subscribe failed", zap.String("biz", biz), zap.Error(err))
			}
		}
	}
	pendingRoutes = make(map[string]NatsxRoute)
	pendingHandlers = make(map[string][]NatsxHandler)
	logger.Info("[Natsx] started", zap.Strings("servers", cfg.Servers))
	return nil
}

func StopNats() error {
	mu.Lock()
	defer mu.Unlock()
	if globalMgr == nil {
		return nil
	}
	err := globalMgr.Close()
	globalMgr = nil
	registeredBiz = make(map[string]struct{})
	return err
}

func Started() bool {
	mu.Lock()
	defer mu.Unlock()
	return globalMgr != nil
}

// RegisterRoute is idempotent per Biz.
func RegisterRoute(r NatsxRoute) error {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := registeredBiz[r.Biz]; ok {
		return nil
	}
	if globalMgr == nil {
		pendingRoutes[r.Biz] = r
		registeredBiz[r.Biz] = struct{}{}
		return nil
	}
	if err := globalMgr.RegisterRoute(r); err != nil {
		return err
	}
	registeredBiz[r.Biz] = struct{}{}
	return nil
}

func RegisterHandler(biz string, h NatsxHandler) error {
	mu.Lock()
	defer mu.Unlock()

	if globalMgr == nil {
		pendingHandlers[biz] = append(pendingHandlers[biz], h)
		return nil
	}
	return globalMgr.Subscribe(biz, h)
}

func PublishOnce(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error {
	mu.Lock()
	m := globalMgr
	mu.Unlock()
	if m == nil {
		return errs.ErrTransport.WrapMsg("nats not started")
	}
	return m.PublishOnce(ctx, biz, data, hdr, msgID)
}
