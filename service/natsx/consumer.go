package natsx

import (
	"context"

	"HealthSeva/logger"
	"HealthSeva/tools/errs"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsxConsumer struct {
	c *NatsxClient
}

func NewNatsxConsumer(c *NatsxClient) *NatsxConsumer {
	return &NatsxConsumer{c: c}
}

func toMessage(m *nats.Msg) NatsxMessage {
	return NatsxMessage{
		Subject: m.Subject,
		Data:    append([]byte(nil), m.Data...),
		Header:  headerToMap(m.Header),
	}
}

// Subscribe attaches h to the route of biz. Handler errors are logged; core
// NATS has nothing to redeliver.
func (cs *NatsxConsumer) Subscribe(biz string, h NatsxHandler) error {
	r, ok := cs.c.route(biz)
	if !ok {
		return errs.ErrArgs.WrapMsg("route not found", "biz", biz)
	}
	cb := func(m *nats.Msg) {
		if err := h(context.Background(), toMessage(m)); err != nil {
			logger.Warn("[Natsx] handler failed", zap.String("subject", m.Subject), zap.Error(err))
		}
	}
	var (
		sub *nats.Subscription
		err error
	)
	if r.Queue == "" {
		sub, err = cs.c.nc.Subscribe(r.Subject, cb)
	} else {
		sub, err = cs.c.nc.QueueSubscribe(r.Subject, r.Queue, cb)
	}
	if err != nil {
		return errs.ErrTransport.WrapMsg("nats subscribe", "subject", r.Subject, "err", err)
	}
	_ = sub.SetPendingLimits(cs.c.cfg.PendingMsgs, 64*1024*1024)

	cs.c.mu.Lock()
	cs.c.subs[biz] = sub
	cs.c.mu.Unlock()
	return nil
}

func headerToMap(h nats.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
