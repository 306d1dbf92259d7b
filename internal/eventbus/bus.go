package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/tactics"
)

// Topic carries every tactics domain event.
const Topic = "tactics.events"

const (
	metaKeySessionID = "session_id"
	metaKeyEventType = "event_type"
)

// SubscriberBuffer is how many undelivered events a subscriber may hold
// before it is dropped.
const SubscriberBuffer = 64

// Bus is an in-process publish/subscribe fan-out of domain events backed by
// watermill's GoChannel. Publish waits for every subscriber to ack, which
// keeps per-session ordering intact. Subscribers ack as soon as the event is
// buffered, and one whose buffer is full is dropped, so a slow reader never
// holds up Publish.
type Bus struct {
	pub message.Publisher
	sub message.Subscriber
}

func New() *Bus {
	ch := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            SubscriberBuffer,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)
	return &Bus{pub: ch, sub: ch}
}

func toMessage(ev tactics.Event) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metaKeySessionID, ev.SessionID)
	msg.Metadata.Set(metaKeyEventType, string(ev.Type))
	return msg, nil
}

// Publish sends events in order.
func (b *Bus) Publish(ctx context.Context, events []tactics.Event) error {
	msgs := make([]*message.Message, 0, len(events))
	for _, ev := range events {
		msg, err := toMessage(ev)
		if err != nil {
			return err
		}
		msg.SetContext(ctx)
		msgs = append(msgs, msg)
	}
	return b.pub.Publish(Topic, msgs...)
}

// Subscribe streams decoded events until ctx is cancelled. A non-empty
// sessionID filters on the message metadata before decoding. The returned
// channel is closed early if the reader falls SubscriberBuffer events behind.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan tactics.Event, error) {
	subCtx, cancel := context.WithCancel(ctx)
	msgs, err := b.sub.Subscribe(subCtx, Topic)
	if err != nil {
		cancel()
		return nil, err
	}
	out := make(chan tactics.Event, SubscriberBuffer)
	go func() {
		defer close(out)
		defer cancel()
		for msg := range msgs {
			if sessionID != "" && msg.Metadata.Get(metaKeySessionID) != sessionID {
				msg.Ack()
				continue
			}
			var ev tactics.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				obslog.L().Warn("tactics_event_decode_error", zap.String("msg_id", msg.UUID), zap.Error(err))
				msg.Ack()
				continue
			}
			if subCtx.Err() != nil {
				msg.Ack()
				return
			}
			select {
			case out <- ev:
				msg.Ack()
			default:
				msg.Ack()
				obslog.L().Warn("tactics_subscriber_lagging",
					zap.String("session_id", sessionID),
					zap.String("event_type", string(ev.Type)),
					zap.Int("buffered", len(out)),
				)
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pub.Close()
}
