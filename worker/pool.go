package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/job"
)

// Pool runs pipeline invocations on a fixed-capacity set of execution
// slots, enforcing a per-invocation deadline. The pool is the only
// backpressure point in the core: callers block on slot acquisition
// when the pool is saturated.
type Pool struct {
	slots   chan struct{}
	timeout time.Duration
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of slots. A timeout of
// zero disables deadline enforcement.
func NewPool(size int, timeout time.Duration, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		slots:   make(chan struct{}, size),
		timeout: timeout,
		logger:  logger,
	}
}

type poolResult struct {
	ec       *job.Context
	err      error
	panicked bool
	panicVal any
}

// Execute acquires a slot, runs fn on it, and waits for completion or
// the pool deadline. Waiting for a slot respects ctx cancellation.
//
// On deadline the call fails with conveyor.ErrDeadlineExceeded and the
// in-flight fn is abandoned: its goroutine keeps running until fn
// returns, at which point the slot is released. There is no guarantee
// the abandoned fn's side effects stopped. The slot is released on
// every exit path, including panic; a panic inside fn is re-raised on
// the caller's goroutine.
func (p *Pool) Execute(ctx context.Context, fn func() (*job.Context, error)) (*job.Context, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	done := make(chan poolResult, 1)
	go func() {
		defer func() { <-p.slots }()
		defer func() {
			if r := recover(); r != nil {
				done <- poolResult{panicked: true, panicVal: r}
			}
		}()
		ec, err := fn()
		done <- poolResult{ec: ec, err: err}
	}()

	if p.timeout <= 0 {
		return waitResult(done)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.panicked {
			panic(res.panicVal)
		}
		return res.ec, res.err
	case <-timer.C:
		p.logger.Warn("pooled execution exceeded deadline, abandoning",
			slog.Duration("timeout", p.timeout),
		)
		return nil, conveyor.ErrDeadlineExceeded
	}
}

func waitResult(done <-chan poolResult) (*job.Context, error) {
	res := <-done
	if res.panicked {
		panic(res.panicVal)
	}
	return res.ec, res.err
}
