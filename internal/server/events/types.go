// Package events fans reconciliation events out to realtime transports.
//
// Client hooks publish into a Broker; each transport (SSE, WebSocket)
// registers a Subscriber and receives every event the broker accepts.
package events

import "time"

// EventType names an event on the wire.
type EventType string

// Event types published by the server.
const (
	AnalysisCompleted     EventType = "analysis.completed"
	OrphanFound           EventType = "orphan.found"
	OrphanResolved        EventType = "orphan.resolved"
	RecommendationChanged EventType = "recommendation.changed"
	ReviewApplied         EventType = "review.applied"
	ReviewFailed          EventType = "review.failed"

	// Emitted by transports, not by hooks.
	ClientConnected EventType = "client.connected"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
