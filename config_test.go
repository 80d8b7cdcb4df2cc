package conveyor_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/job"
)

type captureHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestNormalize_ForcesBatchSizeWithWarning(t *testing.T) {
	h := &captureHandler{}
	logger := slog.New(h)

	cfg := conveyor.DefaultWorkerConfig()
	cfg.BatchSize = 8

	norm := cfg.Normalize(logger)
	if norm.BatchSize != 1 {
		t.Errorf("batch size = %d, want 1", norm.BatchSize)
	}

	warned := false
	for _, m := range h.msgs {
		if strings.Contains(m, "forcing batch size to 1") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected warning about forced batch size")
	}
}

func TestNormalize_DefaultsPool(t *testing.T) {
	cfg := conveyor.WorkerConfig{}
	norm := cfg.Normalize(slog.Default())

	if norm.PoolSize <= 0 {
		t.Errorf("pool size = %d, want positive default", norm.PoolSize)
	}
	if norm.PoolTimeout <= 0 {
		t.Errorf("pool timeout = %v, want positive default", norm.PoolTimeout)
	}
	if norm.BatchSize != 1 {
		t.Errorf("batch size = %d, want 1", norm.BatchSize)
	}
}

func TestJobSet(t *testing.T) {
	cfg := conveyor.DefaultWorkerConfig()
	cfg.Jobs = []job.Name{"a", "b"}

	s := cfg.JobSet()
	if !s.Contains("a") || !s.Contains("b") {
		t.Error("job set missing declared jobs")
	}
	if s.Contains("c") {
		t.Error("job set contains undeclared job")
	}
}
