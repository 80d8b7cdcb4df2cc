package queue_test

import (
	"testing"

	"github.com/xraph/conveyor/queue"
)

func TestManager_UnlimitedTopic(t *testing.T) {
	m := queue.NewManager()

	for range 100 {
		if !m.Acquire("anything", "job") {
			t.Fatal("unconfigured topic must never be limited")
		}
	}
}

func TestManager_MaxConcurrency(t *testing.T) {
	m := queue.NewManager(queue.Config{Topic: "t", MaxConcurrency: 2})

	if !m.Acquire("t", "a") {
		t.Fatal("first acquire should succeed")
	}
	if !m.Acquire("t", "a") {
		t.Fatal("second acquire should succeed")
	}
	if m.Acquire("t", "a") {
		t.Fatal("third acquire should be rejected at max concurrency")
	}

	m.Release("t", "a")
	if !m.Acquire("t", "a") {
		t.Fatal("acquire should succeed again after release")
	}
	if m.ActiveCount("t") != 2 {
		t.Errorf("active = %d, want 2", m.ActiveCount("t"))
	}
}

func TestManager_RateLimit(t *testing.T) {
	m := queue.NewManager(queue.Config{Topic: "t", RateLimit: 1, RateBurst: 1})

	if !m.Acquire("t", "a") {
		t.Fatal("first acquire should consume the burst token")
	}
	if m.Acquire("t", "a") {
		t.Fatal("second immediate acquire should be rate limited")
	}
}

func TestManager_JobLimit(t *testing.T) {
	m := queue.NewManager(queue.Config{Topic: "t"})
	m.SetJobLimit("t", "heavy", 0, 0, 1)

	if !m.Acquire("t", "heavy") {
		t.Fatal("first acquire should succeed")
	}
	if m.Acquire("t", "heavy") {
		t.Fatal("second acquire should hit the job concurrency cap")
	}
	if !m.Acquire("t", "light") {
		t.Fatal("other jobs on the topic must be unaffected")
	}

	m.Release("t", "heavy")
	if !m.Acquire("t", "heavy") {
		t.Fatal("acquire should succeed after release")
	}
}

func TestManager_SetTopicConfigPreservesActive(t *testing.T) {
	m := queue.NewManager(queue.Config{Topic: "t", MaxConcurrency: 5})
	m.Acquire("t", "a")
	m.Acquire("t", "a")

	m.SetTopicConfig(queue.Config{Topic: "t", MaxConcurrency: 2})
	if m.ActiveCount("t") != 2 {
		t.Errorf("active = %d, want 2 after reconfigure", m.ActiveCount("t"))
	}
	if m.Acquire("t", "a") {
		t.Fatal("acquire should respect the lowered cap")
	}
}
