package events

// Subscriber receives every event accepted by a Broker. Send must not block
// for long; slow transports should buffer or drop.
type Subscriber interface {
	Send(Event) error
	Close() error
}
