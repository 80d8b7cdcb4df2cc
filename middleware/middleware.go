// Package middleware provides composable middleware for the job
// execution pipeline. Middleware wraps the remainder of the chain
// synchronously: it can transform the execution context before and
// after calling next, or skip next entirely to short-circuit the
// pipeline.
package middleware

import (
	"context"

	"github.com/xraph/conveyor/job"
)

// Handler is a callable stage of the pipeline. The terminal Handler
// executes the job logic and sets the final State on the context it
// returns.
type Handler func(ctx context.Context, ec *job.Context) (*job.Context, error)

// Middleware wraps a Handler with cross-cutting logic. It receives
// the execution context and the next handler to call. A middleware
// that does not call next short-circuits the chain: downstream
// middlewares and the terminal handler never run, and whatever
// context the middleware returns becomes the pipeline's result.
//
// The chain itself never recovers panics or wraps errors; a failure
// inside any middleware or the handler propagates out of the whole
// pipeline invocation.
type Middleware func(ctx context.Context, ec *job.Context, next Handler) (*job.Context, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(telemetry, logging, audit) executes as:
//
//	telemetry → logging → audit → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, ec *job.Context, next Handler) (*job.Context, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context, ec *job.Context) (*job.Context, error) {
				return mw(ctx, ec, prev)
			}
		}
		return h(ctx, ec)
	}
}
