package events

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Broker queues published events and delivers them, in publish order, to
// every registered subscriber.
type Broker struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	events      chan Event
	logger      *zerolog.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// NewBroker creates a broker with a queue of size buffer.
func NewBroker(logger *zerolog.Logger, buffer int) *Broker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Broker{
		events: make(chan Event, buffer),
		logger: logger,
	}
}

// Run delivers queued events until ctx is done, then closes every
// subscriber.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			subs := b.subscribers
			b.subscribers = nil
			b.mu.Unlock()
			for _, sub := range subs {
				_ = sub.Close()
			}
			b.logger.Debug().Int("subscribers", len(subs)).Msg("Event broker shut down")
			return

		case event := <-b.events:
			b.mu.RLock()
			subs := slices.Clone(b.subscribers)
			b.mu.RUnlock()

			for _, sub := range subs {
				if err := sub.Send(event); err != nil {
					b.logger.Warn().
						Err(err).
						Str("event_type", string(event.Type)).
						Msg("Failed to deliver event")
				}
			}
		}
	}
}

// Publish queues an event. A full queue drops the event.
func (b *Broker) Publish(eventType EventType, data any) {
	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
	select {
	case b.events <- event:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn().
			Str("event_type", string(eventType)).
			Msg("Event queue full, event dropped")
	}
}

// Subscribe registers sub. It is safe to call before Run.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	n := len(b.subscribers)
	b.mu.Unlock()
	b.logger.Debug().Int("subscribers", n).Msg("Subscriber registered")
}

// Unsubscribe removes and closes sub.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	before := len(b.subscribers)
	b.subscribers = slices.DeleteFunc(b.subscribers, func(s Subscriber) bool { return s == sub })
	removed := len(b.subscribers) < before
	b.mu.Unlock()
	if removed {
		_ = sub.Close()
	}
}

// Stats reports broker counters.
type Stats struct {
	Subscribers int   `json:"subscribers"`
	Published   int64 `json:"published"`
	Dropped     int64 `json:"dropped"`
	QueueDepth  int   `json:"queueDepth"`
}

// Stats returns a snapshot of broker counters.
func (b *Broker) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Stats{
		Subscribers: len(b.subscribers),
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
		QueueDepth:  len(b.events),
	}
}
