package client

import (
	"time"

	"github.com/xraph/conveyor/worker"
)

// EnqueueOption configures a single enqueue call.
type EnqueueOption func(*worker.EnqueueOptions)

// WithTopic sets an explicit destination topic, bypassing the worker's
// Topic hook.
func WithTopic(topic string) EnqueueOption {
	return func(o *worker.EnqueueOptions) { o.Topic = topic }
}

// WithProperties attaches application metadata to the outbound
// message. The reserved job identifier key is merged in on top.
func WithProperties(props map[string]string) EnqueueOption {
	return func(o *worker.EnqueueOptions) { o.Properties = props }
}

// WithPartitionKey sets an explicit partition key. The default
// PartitionKey hook reads this value.
func WithPartitionKey(key string) EnqueueOption {
	return func(o *worker.EnqueueOptions) { o.PartitionKey = key }
}

// WithOrderingKey sets the ordering key for the outbound message.
func WithOrderingKey(key string) EnqueueOption {
	return func(o *worker.EnqueueOptions) { o.OrderingKey = key }
}

// WithDeliverAt schedules the message for delayed delivery.
func WithDeliverAt(t time.Time) EnqueueOption {
	return func(o *worker.EnqueueOptions) { o.DeliverAt = t }
}
