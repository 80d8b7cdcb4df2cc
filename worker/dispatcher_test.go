package worker_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/broker"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/queue"
	"github.com/xraph/conveyor/worker"
)

func newTestMessage() *broker.Message {
	return &broker.Message{
		Topic:           "topic-a",
		Payload:         []byte(`{"to":"a@example.com"}`),
		Properties:      map[string]string{"job": "send_email", "user_id": "42"},
		PublishTime:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		EventTime:       time.Date(2026, 8, 1, 11, 59, 0, 0, time.UTC),
		ProducerName:    "producer-1",
		PartitionKey:    "42",
		OrderingKey:     "user-42",
		RedeliveryCount: 2,
	}
}

func TestDispatcher_EndToEnd(t *testing.T) {
	cfg := newTestConfig("send_email")

	var seen *job.Context
	def := &testWorker{
		Base: worker.Base{Config: cfg},
		handle: func(_ context.Context, ec *job.Context) (any, error) {
			seen = ec
			return nil, nil
		},
	}

	d := worker.NewDispatcher(cfg, def, nil)
	results, err := d.HandleMessage(context.Background(), newTestMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected single-element result list, got %d", len(results))
	}
	if results[0] != job.StatusOK {
		t.Errorf("result = %v, want %v", results[0], job.StatusOK)
	}

	if seen == nil {
		t.Fatal("handler never ran")
	}
	if seen.Job != "send_email" {
		t.Errorf("job = %q, want send_email", seen.Job)
	}
	if _, present := seen.Properties["job"]; present {
		t.Error("reserved job key leaked into handler properties")
	}
	if seen.Properties["user_id"] != "42" {
		t.Errorf("user_id property = %q, want 42", seen.Properties["user_id"])
	}
	if seen.Payload["to"] != "a@example.com" {
		t.Errorf("payload to = %v, want a@example.com", seen.Payload["to"])
	}
	if seen.RedeliveryCount != 2 {
		t.Errorf("redelivery count = %d, want 2", seen.RedeliveryCount)
	}
	if seen.ProducerName != "producer-1" {
		t.Errorf("producer = %q, want producer-1", seen.ProducerName)
	}
	if seen.Subscription != "sub-a" {
		t.Errorf("subscription = %q, want sub-a", seen.Subscription)
	}
	if seen.WorkerID == "" {
		t.Error("worker identity not set on context")
	}
}

func TestDispatcher_MalformedPayload(t *testing.T) {
	cfg := newTestConfig("send_email")
	def := &testWorker{Base: worker.Base{Config: cfg}}
	d := worker.NewDispatcher(cfg, def, nil)

	msg := newTestMessage()
	msg.Payload = []byte(`{"to":`)

	_, err := d.HandleMessage(context.Background(), msg)
	if !errors.Is(err, conveyor.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}
}

func TestDispatcher_MissingJobProperty(t *testing.T) {
	cfg := newTestConfig("send_email")
	def := &testWorker{Base: worker.Base{Config: cfg}}
	d := worker.NewDispatcher(cfg, def, nil)

	msg := newTestMessage()
	msg.Properties = map[string]string{"user_id": "42"}

	_, err := d.HandleMessage(context.Background(), msg)
	if !errors.Is(err, conveyor.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", err)
	}
}

func TestDispatcher_UnknownJob(t *testing.T) {
	cfg := newTestConfig("send_email")
	def := &testWorker{Base: worker.Base{Config: cfg}}
	d := worker.NewDispatcher(cfg, def, nil)

	msg := newTestMessage()
	msg.Properties["job"] = "mine_bitcoin"

	_, err := d.HandleMessage(context.Background(), msg)
	if !errors.Is(err, conveyor.ErrUnknownJob) {
		t.Fatalf("error = %v, want ErrUnknownJob", err)
	}
}

func TestDispatcher_HandlerErrorPropagates(t *testing.T) {
	want := errors.New("smtp unavailable")
	cfg := newTestConfig("send_email")
	def := &testWorker{
		Base: worker.Base{Config: cfg},
		handle: func(_ context.Context, _ *job.Context) (any, error) {
			return nil, want
		},
	}
	d := worker.NewDispatcher(cfg, def, nil)

	_, err := d.HandleMessage(context.Background(), newTestMessage())
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

func TestDispatcher_PooledExecutionTimesOut(t *testing.T) {
	cfg := newTestConfig("send_email")
	cfg.UsePool = true
	cfg.PoolSize = 1
	cfg.PoolTimeout = 30 * time.Millisecond

	def := &testWorker{
		Base: worker.Base{Config: cfg},
		handle: func(_ context.Context, _ *job.Context) (any, error) {
			time.Sleep(200 * time.Millisecond)
			return nil, nil
		},
	}
	d := worker.NewDispatcher(cfg, def, nil)

	_, err := d.HandleMessage(context.Background(), newTestMessage())
	if !errors.Is(err, conveyor.ErrDeadlineExceeded) {
		t.Fatalf("error = %v, want ErrDeadlineExceeded", err)
	}
}

func TestDispatcher_ForcesBatchSizeToOne(t *testing.T) {
	var msgs []string
	logger := newRecordLogger(&msgs)

	cfg := newTestConfig("send_email")
	cfg.BatchSize = 16

	def := &testWorker{Base: worker.Base{Config: cfg}}
	_ = worker.NewDispatcher(cfg, def, logger)

	found := false
	for _, m := range msgs {
		if strings.Contains(m, "forcing batch size to 1") {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning about forced batch size")
	}
}

func TestDispatcher_RateLimitRejects(t *testing.T) {
	cfg := newTestConfig("send_email")
	def := &testWorker{Base: worker.Base{Config: cfg}}

	limits := queue.NewManager(queue.Config{Topic: "topic-a", RateLimit: 1, RateBurst: 1})
	d := worker.NewDispatcher(cfg, def, nil, worker.WithLimits(limits))

	// First message consumes the only token.
	if _, err := d.HandleMessage(context.Background(), newTestMessage()); err != nil {
		t.Fatalf("first message failed: %v", err)
	}

	_, err := d.HandleMessage(context.Background(), newTestMessage())
	if !errors.Is(err, conveyor.ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
}
