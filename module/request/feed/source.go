package feed

import (
	"context"
	"encoding/json"
	"time"

	"HealthSeva/logger"
	"HealthSeva/module/request/model"
	"HealthSeva/module/request/store"
	"HealthSeva/service/natsx"
	"HealthSeva/tools/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source reports "something changed" from outside this process. Run blocks
// until ctx is done or the source gives up.
type Source interface {
	Run(ctx context.Context, changed func()) error
}

// WatchSource follows a store change stream, restarting it with backoff.
type WatchSource struct {
	W       store.Watcher
	Backoff time.Duration
}

func (s WatchSource) Run(ctx context.Context, changed func()) error {
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	wait := backoff
	for {
		err := s.W.Watch(ctx, changed)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("[Feed] change stream stopped, restarting", zap.Error(err), zap.Duration("in", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		// catch up on whatever the gap hid
		changed()
		if wait < 30*time.Second {
			wait *= 2
		}
	}
}

// BizRequestChanged is the natsx business key for request change events.
const BizRequestChanged = "request.changed"

// NatsBridge carries change events between instances. Events this instance
// published are remembered so their echo does not trigger a second refresh.
type NatsBridge struct {
	Origin string
	Seen   natsx.IdemStore
	TTL    time.Duration

	publish func(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error
	handle  func(biz string, h natsx.NatsxHandler) error
}

// NewNatsBridge registers the route on the process-wide natsx manager.
func NewNatsBridge(origin, subject string, seen natsx.IdemStore, ttl time.Duration) (*NatsBridge, error) {
	if err := natsx.RegisterRoute(natsx.NatsxRoute{
		Biz:     BizRequestChanged,
		Subject: subject,
		Mode:    natsx.Core,
	}); err != nil {
		return nil, err
	}
	return &NatsBridge{
		Origin:  origin,
		Seen:    seen,
		TTL:     ttl,
		publish: natsx.PublishOnce,
		handle:  natsx.RegisterHandler,
	}, nil
}

// Publish sends ev to the other instances.
func (b *NatsBridge) Publish(ctx context.Context, ev model.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Origin == "" {
		ev.Origin = b.Origin
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errs.WrapMsg(err, "marshal event", "kind", ev.Kind)
	}
	if _, err := b.Seen.SeenOnce(ev.ID, b.TTL); err != nil {
		return err
	}
	return b.publish(ctx, BizRequestChanged, data, nil, ev.ID)
}

// Run subscribes and calls changed for every event that did not originate
// here. The subscription lives as long as the natsx manager.
func (b *NatsBridge) Run(ctx context.Context, changed func()) error {
	h := natsx.NatsxChain(func(_ context.Context, msg natsx.NatsxMessage) error {
		var ev model.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("[Feed] bad change event", zap.String("subject", msg.Subject), zap.Error(err))
			return nil
		}
		if ev.Origin == b.Origin {
			return nil
		}
		logger.Debug("[Feed] remote change", zap.String("kind", string(ev.Kind)), zap.String("request", ev.RequestID))
		changed()
		return nil
	}, natsx.NatsxIdemMiddleware(b.Seen, b.TTL))
	if err := b.handle(BizRequestChanged, h); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
