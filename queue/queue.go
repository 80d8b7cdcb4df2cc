// Package queue provides per-topic rate limiting and concurrency
// control for message dispatch. The dispatcher calls Acquire before
// running a message's pipeline and Release after execution completes.
package queue

import (
	"sync"

	"golang.org/x/time/rate"
)

// Config defines per-topic behaviour such as rate limiting and
// concurrency.
type Config struct {
	// Topic is the topic this configuration applies to.
	Topic string

	// MaxConcurrency limits how many messages from this topic may run
	// simultaneously in the local worker. Zero means no topic-specific
	// limit (pool concurrency still applies).
	MaxConcurrency int

	// RateLimit is the maximum sustained messages per second that may
	// be dispatched from this topic. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// topicState tracks runtime state for a single topic.
type topicState struct {
	config  Config
	limiter *rate.Limiter
	active  int
}

// jobState tracks runtime state for a single job within a topic.
type jobState struct {
	limiter        *rate.Limiter
	maxConcurrency int
	active         int
}

// Manager controls per-topic and per-job rate limiting and
// concurrency. It is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	topics map[string]*topicState
	jobs   map[string]*jobState
}

// NewManager creates a Manager with the given topic configurations.
// Topics not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{
		topics: make(map[string]*topicState, len(configs)),
		jobs:   make(map[string]*jobState),
	}
	for _, cfg := range configs {
		m.topics[cfg.Topic] = newTopicState(cfg)
	}
	return m
}

func newTopicState(cfg Config) *topicState {
	ts := &topicState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		ts.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return ts
}

// SetJobLimit installs a rate/concurrency limit for one job within a
// topic. A zero rateLimit disables rate limiting; a zero
// maxConcurrency disables the concurrency cap.
func (m *Manager) SetJobLimit(topic, jobName string, rateLimit float64, burst, maxConcurrency int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	js := &jobState{maxConcurrency: maxConcurrency}
	if rateLimit > 0 {
		if burst <= 0 {
			burst = 1
		}
		js.limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
	}

	// Preserve current active count if reconfiguring.
	if existing := m.jobs[jobKey(topic, jobName)]; existing != nil {
		js.active = existing.active
	}
	m.jobs[jobKey(topic, jobName)] = js
}

// Acquire checks rate limits and concurrency for the given topic and
// job. If the message is allowed to proceed it increments the active
// counters and returns true. The caller MUST call Release when
// execution completes.
func (m *Manager) Acquire(topic, jobName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check topic-level constraints.
	ts := m.topics[topic]
	if ts != nil {
		if ts.limiter != nil && !ts.limiter.Allow() {
			return false
		}
		if ts.config.MaxConcurrency > 0 && ts.active >= ts.config.MaxConcurrency {
			return false
		}
	}

	// Check job-level constraints.
	js := m.jobs[jobKey(topic, jobName)]
	if js != nil {
		if js.limiter != nil && !js.limiter.Allow() {
			return false
		}
		if js.maxConcurrency > 0 && js.active >= js.maxConcurrency {
			return false
		}
		js.active++
	}

	if ts != nil {
		ts.active++
	}

	return true
}

// Release decrements the active counts for the topic and job.
func (m *Manager) Release(topic, jobName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ts := m.topics[topic]; ts != nil && ts.active > 0 {
		ts.active--
	}
	if js := m.jobs[jobKey(topic, jobName)]; js != nil && js.active > 0 {
		js.active--
	}
}

// SetTopicConfig dynamically updates (or creates) a topic
// configuration.
func (m *Manager) SetTopicConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.topics[cfg.Topic]
	ts := newTopicState(cfg)

	// Preserve current active count if reconfiguring.
	if existing != nil {
		ts.active = existing.active
	}
	m.topics[cfg.Topic] = ts
}

// ActiveCount returns the current number of active messages for a
// topic.
func (m *Manager) ActiveCount(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts := m.topics[topic]; ts != nil {
		return ts.active
	}
	return 0
}

func jobKey(topic, jobName string) string {
	return topic + "\x00" + jobName
}
