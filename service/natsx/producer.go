package natsx

import (
	"context"

	"HealthSeva/tools/errs"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// HeaderMsgID carries the id the idempotency middleware deduplicates on.
const HeaderMsgID = "Nats-Msg-Id"

type NatsxProducer struct{ c *NatsxClient }

func NewNatsxProducer(c *NatsxClient) *NatsxProducer { return &NatsxProducer{c: c} }

func newMsg(subject string, data []byte, hdr map[string]string) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range hdr {
		msg.Header.Set(k, v)
	}
	return msg
}

// Publish sends data on the subject routed for biz.
func (p *NatsxProducer) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err)
	}
	r, ok := p.c.route(biz)
	if !ok {
		return errs.ErrArgs.WrapMsg("route not found", "biz", biz)
	}
	if err := p.c.nc.PublishMsg(newMsg(r.Subject, data, hdr)); err != nil {
		return errs.ErrTransport.WrapMsg("nats publish", "subject", r.Subject, "err", err)
	}
	return nil
}

// PublishOnce stamps HeaderMsgID (generated when empty) before publishing.
func (p *NatsxProducer) PublishOnce(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error {
	if hdr == nil {
		hdr = map[string]string{}
	}
	if msgID == "" {
		msgID = uuid.NewString()
	}
	hdr[HeaderMsgID] = msgID
	return p.Publish(ctx, biz, data, hdr)
}
