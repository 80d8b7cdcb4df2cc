package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/conveyor/job"
)

// meterName is the instrumentation scope name for conveyor metrics.
const meterName = "github.com/xraph/conveyor"

// Telemetry returns middleware that records per-job execution metrics
// using the global OTel MeterProvider. If no MeterProvider is
// configured, noop instruments are used and this middleware becomes a
// pass-through.
//
// Instruments:
//   - conveyor.job.duration (Float64Histogram): execution time in
//     seconds, with attributes: cluster, topic, job, status
//   - conveyor.job.executions (Int64Counter): total executions,
//     with attributes: cluster, topic, job, status
func Telemetry() Middleware {
	meter := otel.Meter(meterName)
	return TelemetryWithMeter(meter)
}

// TelemetryWithMeter returns telemetry middleware using the provided
// meter. This variant allows injecting a specific MeterProvider for
// testing.
func TelemetryWithMeter(meter metric.Meter) Middleware {
	// Create instruments once at middleware construction time.
	// OTel instruments are safe for concurrent use. On error, the API
	// returns noop instruments so the middleware degrades gracefully.
	duration, dErr := meter.Float64Histogram(
		"conveyor.job.duration",
		metric.WithDescription("Duration of job execution in seconds"),
		metric.WithUnit("s"),
	)
	_ = dErr // noop fallback guaranteed by OTel API contract

	executions, eErr := meter.Int64Counter(
		"conveyor.job.executions",
		metric.WithDescription("Total number of job executions"),
		metric.WithUnit("{execution}"),
	)
	_ = eErr // noop fallback guaranteed by OTel API contract

	return func(ctx context.Context, ec *job.Context, next Handler) (*job.Context, error) {
		start := time.Now()
		out, err := next(ctx, ec)
		elapsed := time.Since(start).Seconds()

		status := "success"
		if err != nil {
			status = "error"
		}

		attrs := metric.WithAttributes(
			attribute.String("cluster", ec.Cluster),
			attribute.String("topic", ec.Topic),
			attribute.String("job", string(ec.Job)),
			attribute.String("status", status),
		)

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return out, err
	}
}
