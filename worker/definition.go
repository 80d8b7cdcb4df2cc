package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/job"
)

// EnqueueOptions carry per-call options supplied by enqueue callers.
// They are also passed to the worker's Topic and PartitionKey hooks so
// overrides can route on them.
type EnqueueOptions struct {
	Topic        string
	Properties   map[string]string
	PartitionKey string
	OrderingKey  string
	DeliverAt    time.Time
}

// Definition is the callback surface a concrete worker implements.
// Embed Base to inherit defaults and override only what the worker
// needs.
type Definition interface {
	// Jobs returns the worker's declared job set.
	Jobs() []job.Name

	// HandleJob executes the job described by ec and returns its
	// result state. A nil state with a nil error is recorded as the
	// neutral success value job.StatusOK.
	HandleJob(ctx context.Context, ec *job.Context) (any, error)

	// Topic resolves the destination topic for an enqueue call when
	// the caller did not name one explicitly. Returning an empty
	// topic or an error is fatal for the call.
	Topic(name job.Name, params any, opts EnqueueOptions) (string, error)

	// PartitionKey resolves the partition key for an enqueue call.
	// An empty key means no partition preference.
	PartitionKey(name job.Name, params any, opts EnqueueOptions) string
}

// Base provides default Definition behavior backed by the worker's
// static configuration. Concrete workers embed it and override
// HandleJob (always) and Topic/PartitionKey (as needed).
type Base struct {
	Config conveyor.WorkerConfig
}

// Jobs returns the configured job set.
func (b Base) Jobs() []job.Name { return b.Config.Jobs }

// HandleJob fails: a worker without its own handler cannot execute
// anything.
func (b Base) HandleJob(_ context.Context, ec *job.Context) (any, error) {
	return nil, fmt.Errorf("%w: no handler for %q", conveyor.ErrUnknownJob, ec.Job)
}

// Topic returns the worker's configured topic.
func (b Base) Topic(name job.Name, _ any, _ EnqueueOptions) (string, error) {
	if b.Config.Topic == "" {
		return "", fmt.Errorf("%w: %q", conveyor.ErrNoTopic, name)
	}
	return b.Config.Topic, nil
}

// PartitionKey reads the key from the caller-supplied options.
func (b Base) PartitionKey(_ job.Name, _ any, opts EnqueueOptions) string {
	return opts.PartitionKey
}
