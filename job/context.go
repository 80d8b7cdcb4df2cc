package job

import "time"

// Context is the per-invocation unit of work threaded through the
// middleware pipeline. One Context is created per inbound message or
// per enqueue/inline call, flows synchronously through the composed
// chain, and is discarded once its State is consumed.
//
// Job, Payload, and the routing and delivery metadata are snapshot
// inputs and are treated as read-only by convention. Middlewares and
// the handler mutate only Assigns and State. Contexts are never
// shared across concurrent tasks.
type Context struct {
	// Routing and identity metadata.
	Cluster      string
	WorkerID     string
	Topic        string
	Subscription string

	// Job is the symbolic identifier of the job variant to execute.
	Job Name

	// Payload is the decoded job arguments (a JSON object).
	Payload map[string]any

	// Properties is application metadata carried alongside the
	// payload, with PropertyKey already removed.
	Properties map[string]string

	// Delivery metadata, sourced from the inbound message or
	// synthesized for inline execution.
	PublishTime     time.Time
	EventTime       time.Time
	ProducerName    string
	PartitionKey    string
	OrderingKey     string
	DeliverAt       time.Time
	RedeliveryCount int

	// ConsumerOpts are passthrough options from the underlying
	// consumer. Opaque to the pipeline.
	ConsumerOpts map[string]any

	// Assigns is mutable scratch space middlewares use to pass
	// derived data to later stages or to the handler.
	Assigns map[string]any

	// State is the pipeline's output. It starts unset (nil) and is
	// the only field middlewares and the handler are expected to
	// mutate with a meaningful result.
	State any
}

// Assign stores a value in the scratch map, allocating it on first use.
func (c *Context) Assign(key string, value any) {
	if c.Assigns == nil {
		c.Assigns = make(map[string]any)
	}
	c.Assigns[key] = value
}

// Assigned returns a scratch value and whether it was set.
func (c *Context) Assigned(key string) (any, bool) {
	v, ok := c.Assigns[key]
	return v, ok
}
