// Package events distributes employee change events over an in-process
// Watermill pub/sub. Every subscriber receives every event published to the
// topics it subscribed to.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured.
const DefaultBufferSize = 64

// Bus publishes and subscribes to employee events.
type Bus struct {
	pubsub     *gochannel.GoChannel
	logger     *zap.Logger
	bufferSize int
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the buffer of each subscription channel.
func WithBufferSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// NewBus creates a new Bus.
func NewBus(logger *zap.Logger, opts ...Option) *Bus {
	b := &Bus{
		logger:     logger,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.pubsub = gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: int64(b.bufferSize)},
		NewZapAdapter(logger),
	)
	return b
}

// Publish sends the event to the topic named by its type.
func (b *Bus) Publish(ctx context.Context, event model.EmployeeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}

	id := event.ID
	if id == "" {
		id = watermill.NewUUID()
	}

	msg := message.NewMessage(id, payload)
	msg.Metadata.Set("employee_id", event.EmployeeID)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("events: publish to %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe returns a channel receiving events from the given topics, or from
// every employee topic when none are given. The channel is closed when ctx is
// done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topics ...string) (<-chan model.EmployeeEvent, error) {
	if len(topics) == 0 {
		topics = model.EventTypes
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan model.EmployeeEvent, b.bufferSize)

	var wg sync.WaitGroup
	for _, topic := range topics {
		messages, err := b.pubsub.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			b.forward(subCtx, topic, messages, out)
		}()
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()

	return out, nil
}

func (b *Bus) forward(
	ctx context.Context,
	topic string,
	messages <-chan *message.Message,
	out chan<- model.EmployeeEvent,
) {
	for msg := range messages {
		var event model.EmployeeEvent
		err := json.Unmarshal(msg.Payload, &event)
		msg.Ack()
		if err != nil {
			b.logger.Warn("dropping malformed employee event",
				zap.String("topic", topic),
				zap.String("message_uuid", msg.UUID),
				zap.Error(err),
			)
			continue
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the bus and closes every subscription.
func (b *Bus) Close() error {
	if err := b.pubsub.Close(); err != nil {
		return fmt.Errorf("events: close: %w", err)
	}
	return nil
}
