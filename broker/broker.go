// Package broker defines the boundary types between conveyor and the
// underlying pub/sub layer. The consumer and producer themselves
// (subscription lifecycle, acknowledgment, redelivery, connection
// management) live outside this module; conveyor only consumes
// Message values and publishes through the Publisher interface.
package broker

import (
	"context"
	"time"
)

// Message is one inbound message as handed over by the consumer layer.
// Payload is JSON-encoded bytes; Properties must contain the reserved
// job identifier key (see job.PropertyKey).
type Message struct {
	Topic           string
	Payload         []byte
	Properties      map[string]string
	PublishTime     time.Time
	EventTime       time.Time
	ProducerName    string
	PartitionKey    string
	OrderingKey     string
	DeliverAt       time.Time
	RedeliveryCount int
}

// PublishOptions carry per-message options on the outbound path.
type PublishOptions struct {
	// Properties is application metadata attached to the message,
	// including the reserved job identifier key.
	Properties map[string]string

	// PartitionKey is a routing hint influencing which broker
	// partition receives the message.
	PartitionKey string

	// OrderingKey groups messages for ordered delivery.
	OrderingKey string

	// DeliverAt schedules the message for delayed delivery.
	DeliverAt time.Time

	// Extra holds producer options passed through untouched.
	Extra map[string]any
}

// Receipt is the broker's acknowledgment of a published message.
type Receipt struct {
	MessageID   string
	Topic       string
	PublishTime time.Time
}

// Publisher is the outbound publish interface. Implementations own
// the network transport; errors are returned verbatim to enqueue
// callers.
type Publisher interface {
	Publish(ctx context.Context, cluster, topic string, payload []byte, opts PublishOptions) (*Receipt, error)
}
