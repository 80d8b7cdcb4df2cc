// Package worker provides the execution engine for conveyor workers:
// the Pipeline that composes middlewares around the terminal job
// handler, the bounded Pool that caps concurrent execution under a
// deadline, and the Dispatcher that turns inbound messages into
// pipeline runs.
package worker

import (
	"context"
	"log/slog"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/job"
	"github.com/xraph/conveyor/middleware"
)

// Pipeline is the composed middleware chain plus the terminal handler.
// It is assembled once per worker at construction time and reused for
// every dispatch; it has no side effects of its own.
type Pipeline struct {
	mw       middleware.Middleware
	terminal middleware.Handler
}

// NewPipeline composes the built-in telemetry and logging middlewares,
// in that order, ahead of the worker-declared middlewares, around the
// worker's handler.
func NewPipeline(cfg conveyor.WorkerConfig, def Definition, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	mws := make([]middleware.Middleware, 0, len(cfg.Middlewares)+2)
	mws = append(mws, middleware.Telemetry(), middleware.Logging(logger))
	mws = append(mws, cfg.Middlewares...)

	return &Pipeline{
		mw:       middleware.Chain(mws...),
		terminal: terminalHandler(def),
	}
}

// Run sends one execution context through the pipeline and returns the
// resulting context. Errors from middlewares or the handler propagate
// unwrapped.
func (p *Pipeline) Run(ctx context.Context, ec *job.Context) (*job.Context, error) {
	return p.mw(ctx, ec, p.terminal)
}

// terminalHandler adapts a Definition's HandleJob into the innermost
// pipeline stage: it records the handler's result as the context's
// State, substituting job.StatusOK when the handler reports nothing.
func terminalHandler(def Definition) middleware.Handler {
	return func(ctx context.Context, ec *job.Context) (*job.Context, error) {
		state, err := def.HandleJob(ctx, ec)
		if err != nil {
			return ec, err
		}
		if state == nil {
			state = job.StatusOK
		}
		ec.State = state
		return ec, nil
	}
}
