package conveyor

import (
	"log/slog"
	"time"

	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/middleware"
)

// WorkerConfig holds the static per-worker configuration. It is
// resolved once at worker registration and passed by value into the
// dispatch and enqueue entry points. There is no ambient global state.
type WorkerConfig struct {
	// Cluster is the broker cluster this worker belongs to.
	Cluster string

	// Topic is the default topic for this worker's jobs.
	Topic string

	// Subscription is the consumer subscription name.
	Subscription string

	// Jobs is the finite set of job identifiers this worker handles.
	Jobs []job.Name

	// BatchSize is the consumer delivery batch size. Job workers only
	// support single-message delivery; Normalize forces this to 1.
	BatchSize int

	// UsePool runs the pipeline inside a bounded worker pool with a
	// per-invocation deadline. When false the pipeline runs directly
	// on the caller's goroutine.
	UsePool bool

	// PoolSize is the number of pool slots when UsePool is set.
	PoolSize int

	// PoolTimeout is the per-invocation deadline when UsePool is set.
	PoolTimeout time.Duration

	// Inline executes enqueued jobs in-process through the pipeline
	// instead of publishing them to the broker.
	Inline bool

	// Middlewares run in declaration order after the built-in
	// telemetry and logging middlewares.
	Middlewares []middleware.Middleware

	// ConsumerOpts are passed through to the execution context
	// untouched. Opaque to the pipeline.
	ConsumerOpts map[string]any

	// ProducerOpts are attached to every outbound publish call.
	ProducerOpts map[string]any
}

// DefaultWorkerConfig returns a WorkerConfig with sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:   1,
		PoolSize:    8,
		PoolTimeout: 30 * time.Second,
	}
}

// Normalize validates and fixes up the configuration. Batched delivery
// is not supported for job workers: a batch size above one is forced
// back to one with a warning.
func (c WorkerConfig) Normalize(logger *slog.Logger) WorkerConfig {
	if c.BatchSize > 1 {
		logger.Warn("batched delivery is not supported for job workers, forcing batch size to 1",
			slog.String("subscription", c.Subscription),
			slog.Int("configured_batch_size", c.BatchSize),
		)
	}
	c.BatchSize = 1

	if c.PoolSize <= 0 {
		c.PoolSize = 8
	}
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = 30 * time.Second
	}
	return c
}

// JobSet returns the declared jobs as a membership set.
func (c WorkerConfig) JobSet() job.Set {
	return job.NewSet(c.Jobs...)
}
