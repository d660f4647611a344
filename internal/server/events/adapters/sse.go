package adapters

import (
	"strconv"
	"sync/atomic"

	"github.com/agentstation/featurereg/internal/server/events"
	"github.com/agentstation/featurereg/internal/server/sse"
)

// SSESubscriber forwards broker events to an SSE broadcaster. Frames carry
// a per-process sequence number as their ID.
type SSESubscriber struct {
	broadcaster *sse.Broadcaster
	seq         atomic.Uint64
}

// NewSSESubscriber wraps a broadcaster.
func NewSSESubscriber(broadcaster *sse.Broadcaster) *SSESubscriber {
	return &SSESubscriber{broadcaster: broadcaster}
}

// Send implements events.Subscriber.
func (s *SSESubscriber) Send(event events.Event) error {
	s.broadcaster.Broadcast(sse.Event{
		Event: string(event.Type),
		ID:    strconv.FormatUint(s.seq.Add(1), 10),
		Data:  event.Data,
	})
	return nil
}

// Close implements events.Subscriber. The broadcaster owns its streams.
func (s *SSESubscriber) Close() error {
	return nil
}
