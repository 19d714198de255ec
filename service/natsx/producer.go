package natsx

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

type NatsxProducer struct {
	c *NatsxClient
}

func NewNatsxProducer(c *NatsxClient) *NatsxProducer {
	return &NatsxProducer{c: c}
}

// Publish sends data on the subject registered for biz.
func (p *NatsxProducer) Publish(ctx context.Context, biz string, data []byte, hdr map[string]string) error {
	r, ok := p.c.route(biz)
	if !ok {
		return fmt.Errorf("route not found: %s", biz)
	}
	msg := nats.NewMsg(r.Subject)
	msg.Data = data
	for k, v := range hdr {
		msg.Header.Set(k, v)
	}
	if r.Mode == JetStreamPush {
		if err := p.c.ensureJS(); err != nil {
			return err
		}
		_, err := p.c.js.PublishMsg(msg, nats.Context(ctx))
		return err
	}
	return p.c.nc.PublishMsg(msg)
}

// PublishOnce sends data with a Nats-Msg-Id header so JetStream (and the
// consumer-side idempotency window) can deduplicate redeliveries.
func (p *NatsxProducer) PublishOnce(ctx context.Context, biz string, data []byte, hdr map[string]string, msgID string) error {
	if msgID == "" {
		return fmt.Errorf("msgID required for PublishOnce")
	}
	if hdr == nil {
		hdr = map[string]string{}
	}
	hdr["Nats-Msg-Id"] = msgID
	return p.Publish(ctx, biz, data, hdr)
}
