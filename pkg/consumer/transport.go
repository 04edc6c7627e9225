package consumer

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

// Message is the minimal per-delivery contract the runtime needs: the raw
// bytes and the three terminal actions. Splitting this out from *nats.Msg
// lets handleBatch be unit tested without a live NATS connection, mirroring
// the teacher's processEvent/processMessage split.
type Message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Subscription pulls batches of Messages from one durable subscription.
type Subscription interface {
	Fetch(ctx context.Context, batchSize int, timeout time.Duration) ([]Message, error)
}

type natsMessage struct{ msg *nats.Msg }

func (m natsMessage) Data() []byte { return m.msg.Data }
func (m natsMessage) Ack() error   { return m.msg.Ack() }
func (m natsMessage) Nak() error   { return m.msg.Nak() }
func (m natsMessage) Term() error  { return m.msg.Term() }

type natsSubscription struct{ sub *nats.Subscription }

func (s natsSubscription) Fetch(ctx context.Context, batchSize int, timeout time.Duration) ([]Message, error) {
	msgs, err := s.sub.Fetch(batchSize, nats.MaxWait(timeout), nats.Context(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = natsMessage{m}
	}
	return out, nil
}
