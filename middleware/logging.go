package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/conveyor/job"
)

// Logging returns middleware that logs job start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, ec *job.Context, next Handler) (*job.Context, error) {
		logger.Info("job started",
			slog.String("job", string(ec.Job)),
			slog.String("cluster", ec.Cluster),
			slog.String("topic", ec.Topic),
		)

		start := time.Now()
		out, err := next(ctx, ec)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("job", string(ec.Job)),
				slog.String("topic", ec.Topic),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job completed",
				slog.String("job", string(ec.Job)),
				slog.String("topic", ec.Topic),
				slog.Duration("elapsed", elapsed),
			)
		}

		return out, err
	}
}
