// Package client provides the outbound enqueue entry point: it
// serializes a job request, resolves routing metadata through the
// worker's hooks, and hands the message to a broker.Publisher. Workers
// configured for inline execution skip the broker entirely and run the
// job through the same composed pipeline the dispatch path uses.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/broker"
	"github.com/xraph/conveyor/id"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/worker"
)

// meterName is the instrumentation scope name for enqueue metrics.
const meterName = "github.com/xraph/conveyor/client"

// InlineProducerName marks an execution context as originating from
// in-process inline execution rather than a broker delivery.
const InlineProducerName = "conveyor-inline"

// Client enqueues jobs for one worker definition.
type Client struct {
	cfg      conveyor.WorkerConfig
	def      worker.Definition
	jobs     job.Set
	pub      broker.Publisher
	pipeline *worker.Pipeline // inline mode only
	workerID id.ID
	logger   *slog.Logger

	enqueues  metric.Int64Counter
	durations metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithMeter overrides the meter used for enqueue telemetry. Intended
// for tests injecting a specific MeterProvider.
func WithMeter(m metric.Meter) Option {
	return func(c *Client) { c.initInstruments(m) }
}

// New creates a Client for the given worker configuration. pub may be
// nil when cfg.Inline is set, since inline workers never publish.
func New(cfg conveyor.WorkerConfig, def worker.Definition, pub broker.Publisher, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.Normalize(logger)

	c := &Client{
		cfg:      cfg,
		def:      def,
		jobs:     cfg.JobSet(),
		pub:      pub,
		workerID: id.New(id.PrefixWorker),
		logger:   logger,
	}
	if cfg.Inline {
		c.pipeline = worker.NewPipeline(cfg, def, logger)
	}
	c.initInstruments(otel.Meter(meterName))

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// initInstruments creates the enqueue instruments. On error the OTel
// API returns noop instruments, so telemetry degrades gracefully.
func (c *Client) initInstruments(meter metric.Meter) {
	enqueues, eErr := meter.Int64Counter(
		"conveyor.enqueue.count",
		metric.WithDescription("Total number of enqueue attempts"),
		metric.WithUnit("{enqueue}"),
	)
	_ = eErr
	durations, dErr := meter.Float64Histogram(
		"conveyor.enqueue.duration",
		metric.WithDescription("Wall-clock duration of successful publishes in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr

	c.enqueues = enqueues
	c.durations = durations
}

// Enqueue submits a job request.
//
// On the network path (the default) the params are serialized to JSON
// and published to the resolved topic; the publisher's receipt or
// error is passed through verbatim. Calling Enqueue with a job outside
// the worker's declared set is a programming error and fails with
// ErrUnknownJob.
//
// When the worker is configured for inline execution the job runs
// synchronously through the composed pipeline instead: a StatusOK
// final state maps to (nil, nil) and any other state is returned
// as-is.
func (c *Client) Enqueue(ctx context.Context, name job.Name, params any, opts ...EnqueueOption) (any, error) {
	if !c.jobs.Contains(name) {
		return nil, fmt.Errorf("%w: %q", conveyor.ErrUnknownJob, name)
	}

	var eo worker.EnqueueOptions
	for _, opt := range opts {
		opt(&eo)
	}

	if c.cfg.Inline {
		return c.enqueueInline(ctx, name, params, eo)
	}
	return c.enqueueWire(ctx, name, params, eo)
}

func (c *Client) enqueueWire(ctx context.Context, name job.Name, params any, eo worker.EnqueueOptions) (any, error) {
	topic := eo.Topic
	if topic == "" {
		var err error
		topic, err = c.def.Topic(name, params, eo)
		if err != nil {
			return nil, err
		}
		if topic == "" {
			return nil, fmt.Errorf("%w: %q", conveyor.ErrNoTopic, name)
		}
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("conveyor: marshal params for job %q: %w", name, err)
	}

	// Merge the reserved job key into the caller-supplied properties.
	props := make(map[string]string, len(eo.Properties)+1)
	for k, v := range eo.Properties {
		props[k] = v
	}
	props[job.PropertyKey] = string(name)

	attrs := []attribute.KeyValue{
		attribute.String("cluster", c.cfg.Cluster),
		attribute.String("topic", topic),
		attribute.String("job", string(name)),
	}

	start := time.Now()
	receipt, pubErr := c.pub.Publish(ctx, c.cfg.Cluster, topic, payload, broker.PublishOptions{
		Properties:   props,
		PartitionKey: c.def.PartitionKey(name, params, eo),
		OrderingKey:  eo.OrderingKey,
		DeliverAt:    eo.DeliverAt,
		Extra:        c.cfg.ProducerOpts,
	})
	if pubErr != nil {
		c.enqueues.Add(ctx, 1, metric.WithAttributes(
			append(attrs, attribute.String("status", "error"))...,
		))
		c.logger.Error("enqueue failed",
			slog.String("job", string(name)),
			slog.String("topic", topic),
			slog.String("error", pubErr.Error()),
		)
		return nil, pubErr
	}

	okAttrs := metric.WithAttributes(
		append(attrs, attribute.String("status", "success"))...,
	)
	c.enqueues.Add(ctx, 1, okAttrs)
	c.durations.Record(ctx, time.Since(start).Seconds(), okAttrs)

	return receipt, nil
}

// enqueueInline executes the job in-process. The params take a JSON
// encode/decode round trip first so the handler observes exactly the
// data shapes a wire-delivered job would (key types, numeric
// precision).
func (c *Client) enqueueInline(ctx context.Context, name job.Name, params any, eo worker.EnqueueOptions) (any, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("conveyor: marshal params for job %q: %w", name, err)
	}

	var payload map[string]any
	if len(encoded) > 0 && string(encoded) != "null" {
		if err := json.Unmarshal(encoded, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", conveyor.ErrDecode, err)
		}
	}

	props := make(map[string]string, len(eo.Properties))
	for k, v := range eo.Properties {
		props[k] = v
	}

	topic := eo.Topic
	if topic == "" {
		topic = c.cfg.Topic
	}

	ec := &job.Context{
		Cluster:         c.cfg.Cluster,
		WorkerID:        c.workerID.String(),
		Topic:           topic,
		Subscription:    c.cfg.Subscription,
		Job:             name,
		Payload:         payload,
		Properties:      props,
		PublishTime:     time.Now(),
		ProducerName:    InlineProducerName,
		PartitionKey:    c.def.PartitionKey(name, params, eo),
		DeliverAt:       eo.DeliverAt,
		RedeliveryCount: 0,
		ConsumerOpts:    c.cfg.ConsumerOpts,
		Assigns:         make(map[string]any),
	}

	out, err := c.pipeline.Run(ctx, ec)
	if err != nil {
		return nil, err
	}
	if out.State == job.StatusOK {
		return nil, nil
	}
	return out.State, nil
}
