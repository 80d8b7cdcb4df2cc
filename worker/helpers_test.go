package worker_test

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/worker"
)

// testWorker is a Definition whose handler is injected per test.
type testWorker struct {
	worker.Base
	handle func(ctx context.Context, ec *job.Context) (any, error)
}

func (w *testWorker) HandleJob(ctx context.Context, ec *job.Context) (any, error) {
	if w.handle == nil {
		return nil, nil
	}
	return w.handle(ctx, ec)
}

func newTestConfig(jobs ...job.Name) conveyor.WorkerConfig {
	cfg := conveyor.DefaultWorkerConfig()
	cfg.Cluster = "test"
	cfg.Topic = "topic-a"
	cfg.Subscription = "sub-a"
	cfg.Jobs = jobs
	return cfg
}

// recordLogger captures slog messages in order, letting tests observe
// where the built-in logging middleware runs relative to declared
// middlewares.
type recordLogger struct {
	mu   sync.Mutex
	msgs *[]string
}

func newRecordLogger(msgs *[]string) *slog.Logger {
	return slog.New(&recordLogger{msgs: msgs})
}

func (h *recordLogger) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordLogger) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.msgs = append(*h.msgs, r.Message)
	return nil
}

func (h *recordLogger) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordLogger) WithGroup(string) slog.Handler      { return h }
