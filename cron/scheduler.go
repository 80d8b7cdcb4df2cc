// Package cron provides a schedule-driven enqueuer: entries fire on a
// cron expression and enqueue a job through the worker's client. It
// is a convenience layer on top of client.Client; there is no
// persistence or cross-process coordination, so deploys running more
// than one scheduler instance will enqueue once per instance.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/conveyor/client"
	"github.com/xraph/conveyor/job"
)

// cronParser supports standard 5-field cron and descriptors like
// "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Entry is one scheduled enqueue.
type Entry struct {
	// Name identifies the entry in logs.
	Name string

	// Schedule is a cron expression (e.g., "*/5 * * * *" or "@every 30s").
	Schedule string

	// Job is the job to enqueue on each tick.
	Job job.Name

	// Params is the params value enqueued with the job.
	Params any

	// Opts are per-call enqueue options applied on each tick.
	Opts []client.EnqueueOption
}

// Scheduler fires entries on their schedules and enqueues the
// corresponding jobs.
type Scheduler struct {
	client *client.Client
	runner *cronlib.Cron
	logger *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewScheduler creates a Scheduler that enqueues through c.
func NewScheduler(c *client.Client, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		client: c,
		runner: cronlib.New(cronlib.WithParser(cronParser)),
		logger: logger,
	}
}

// Add registers an entry. Returns an error if the schedule expression
// is invalid.
func (s *Scheduler) Add(e Entry) error {
	if _, err := ParseSchedule(e.Schedule); err != nil {
		return fmt.Errorf("cron: entry %q: invalid schedule %q: %w", e.Name, e.Schedule, err)
	}

	_, err := s.runner.AddFunc(e.Schedule, func() {
		s.fire(e)
	})
	if err != nil {
		return fmt.Errorf("cron: entry %q: %w", e.Name, err)
	}
	return nil
}

func (s *Scheduler) fire(e Entry) {
	result, err := s.client.Enqueue(context.Background(), e.Job, e.Params, e.Opts...)
	if err != nil {
		s.logger.Error("cron enqueue failed",
			slog.String("entry", e.Name),
			slog.String("job", string(e.Job)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("cron entry fired",
		slog.String("entry", e.Name),
		slog.String("job", string(e.Job)),
		slog.Any("result", result),
	)
}

// Start launches the scheduler. It returns immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.runner.Start()
	s.logger.Info("cron scheduler started")
}

// Stop stops firing new entries and waits for in-flight enqueues to
// finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	stopCtx := s.runner.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
