package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/conveyor/job"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace.
// It is not installed by default: workers that want panic containment
// declare it explicitly.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, ec *job.Context, next Handler) (out *job.Context, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job handler panicked",
					slog.String("job", string(ec.Job)),
					slog.String("topic", ec.Topic),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				out = ec
				retErr = fmt.Errorf("panic in job %s: %v", ec.Job, r)
			}
		}()
		return next(ctx, ec)
	}
}
