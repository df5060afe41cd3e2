package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	contractsv1 "backoffice/contracts/gen/events/v1"
)

// AllTopics subscribes a handler to every published topic.
const AllTopics = "*"

var ErrBusClosed = errors.New("event bus closed")

type subscription struct {
	topic string
	group string
	ch    chan contractsv1.Envelope
}

// Bus is an in-process publish/subscribe event bus used by the outbox relay
// and local consumers. Each subscription owns a buffered channel and one
// goroutine; a full buffer drops the event for that subscriber only, which is
// safe because the outbox keeps the durable copy.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
	closed      bool
	wg          sync.WaitGroup
	done        chan struct{}
	buffer      int
	logger      *slog.Logger
}

func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 128
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]*subscription),
		done:        make(chan struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	subs := make([]*subscription, 0, len(b.subscribers[topic])+len(b.subscribers[AllTopics]))
	subs = append(subs, b.subscribers[topic]...)
	subs = append(subs, b.subscribers[AllTopics]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscribers", len(subs),
	)
	return nil
}

// Subscribe registers handler for topic until ctx is cancelled or the bus is
// closed.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := &subscription{
		topic: topic,
		group: consumerGroup,
		ch:    make(chan contractsv1.Envelope, b.buffer),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		defer b.removeSubscriber(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case event := <-sub.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

// Close stops every subscriber goroutine and waits for them to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) removeSubscriber(target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.subscribers[target.topic]
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		delete(b.subscribers, target.topic)
		return
	}
	b.subscribers[target.topic] = filtered
}
