package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/broker"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/queue"
)

// Dispatcher is the message-driven entry point. It converts one
// inbound message into an execution context, runs it through the
// pipeline (directly or via the bounded pool, per configuration), and
// returns the final state to the consumer layer.
type Dispatcher struct {
	cfg      conveyor.WorkerConfig
	def      Definition
	jobs     job.Set
	pipeline *Pipeline
	pool     *Pool
	limits   *queue.Manager
	workerID id.ID
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLimits gates message execution through a per-topic rate and
// concurrency manager. Rejected messages fail with ErrRateLimited so
// the consumer layer can redeliver them.
func WithLimits(m *queue.Manager) DispatcherOption {
	return func(d *Dispatcher) { d.limits = m }
}

// NewDispatcher builds the dispatcher for one worker definition. The
// pipeline is composed here, once, and reused for every message.
func NewDispatcher(cfg conveyor.WorkerConfig, def Definition, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.Normalize(logger)

	d := &Dispatcher{
		cfg:      cfg,
		def:      def,
		jobs:     cfg.JobSet(),
		pipeline: NewPipeline(cfg, def, logger),
		workerID: id.New(id.PrefixWorker),
		logger:   logger,
	}
	if cfg.UsePool {
		d.pool = NewPool(cfg.PoolSize, cfg.PoolTimeout, logger)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WorkerID returns the dispatcher's unique worker identity.
func (d *Dispatcher) WorkerID() id.ID { return d.workerID }

// HandleMessage processes one inbound message and returns its result
// as the single-element outcome list the consumer contract expects.
//
// The payload must be a JSON object and the properties map must carry
// the reserved job identifier key; either failing is fatal for this
// message (ErrDecode). Propagation beyond that, including redelivery,
// is the consumer layer's responsibility.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *broker.Message) ([]any, error) {
	rawJob, ok := msg.Properties[job.PropertyKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q property", conveyor.ErrDecode, job.PropertyKey)
	}

	name := job.Name(rawJob)
	if !d.jobs.Contains(name) {
		return nil, fmt.Errorf("%w: %q", conveyor.ErrUnknownJob, name)
	}

	var payload map[string]any
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", conveyor.ErrDecode, err)
		}
	}

	// Expose properties without the reserved job key.
	props := make(map[string]string, len(msg.Properties)-1)
	for k, v := range msg.Properties {
		if k != job.PropertyKey {
			props[k] = v
		}
	}

	topic := msg.Topic
	if topic == "" {
		topic = d.cfg.Topic
	}

	if d.limits != nil {
		if !d.limits.Acquire(topic, rawJob) {
			return nil, fmt.Errorf("%w: topic %q", conveyor.ErrRateLimited, topic)
		}
		defer d.limits.Release(topic, rawJob)
	}

	ec := &job.Context{
		Cluster:         d.cfg.Cluster,
		WorkerID:        d.workerID.String(),
		Topic:           topic,
		Subscription:    d.cfg.Subscription,
		Job:             name,
		Payload:         payload,
		Properties:      props,
		PublishTime:     msg.PublishTime,
		EventTime:       msg.EventTime,
		ProducerName:    msg.ProducerName,
		PartitionKey:    msg.PartitionKey,
		OrderingKey:     msg.OrderingKey,
		DeliverAt:       msg.DeliverAt,
		RedeliveryCount: msg.RedeliveryCount,
		ConsumerOpts:    d.cfg.ConsumerOpts,
		Assigns:         make(map[string]any),
	}

	run := func() (*job.Context, error) {
		return d.pipeline.Run(ctx, ec)
	}

	var out *job.Context
	var err error
	if d.pool != nil {
		out, err = d.pool.Execute(ctx, run)
	} else {
		out, err = run()
	}
	if err != nil {
		return nil, err
	}

	return []any{out.State}, nil
}
