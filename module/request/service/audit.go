package service

import (
	"context"

	"HealthSeva/module/request/model"
	"HealthSeva/service/kafka"
)

// Audit writes request events to the Kafka audit topic, keyed by request so
// one request's history stays in one partition.
type Audit struct {
	sender *kafka.Sender
}

var _ Publisher = (*Audit)(nil)

func NewAudit(sender *kafka.Sender) *Audit {
	return &Audit{sender: sender}
}

func (a *Audit) Publish(_ context.Context, ev model.Event) error {
	return a.sender.SendJSON(ev.RequestID, ev)
}
