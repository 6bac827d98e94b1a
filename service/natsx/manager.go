package natsx

import (
	"context"

	"HealthSeva/tools/errs"
)

// NatsManager bundles the connection with its producer and consumer.
type NatsManager struct {
	client   *NatsxClient
	producer *NatsxProducer
	consumer *NatsxConsumer
}

func NewNatsManager(cfg NatsxConfig) (*NatsManager, error) {
	c, err := NewNatsxClient(cfg)
	if err != nil {
		return nil, err
	}
	return &NatsManager{client: c, producer: NewNatsxProducer(c), consumer: NewNatsxConsumer(c)}, nil
}

func (m *NatsManager) ready() error {
	if m == nil || m.client == nil {
		return errs.ErrInternal.WrapMsg("nats manager not initialized")
	}
	return nil
}

func (m *NatsManager) Close() error {
	if m.ready() != nil {
		return nil
	}
	return m.client.Close()
}

func (m *NatsManager) RegisterRoute(r NatsxRoute) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.client.RegisterRoute(r)
}

func (m *NatsManager) PublishOnce(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.producer.PublishOnce(ctx, biz, data, hdr, msgID)
}

func (m *NatsManager) Subscribe(biz string, h NatsxHandler) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.consumer.Subscribe(biz, h)
}
