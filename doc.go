// Package conveyor provides a job dispatch and middleware execution
// pipeline for message-driven workers.
//
// A worker declares a finite set of jobs, an optional list of
// middlewares, and a handler. Conveyor turns each inbound message (or
// direct enqueue call) into an execution context, runs it through the
// composed middleware chain, and executes the terminal job handler,
// optionally inside a bounded, deadline-enforced worker pool.
//
// Conveyor is a library, not a service. The broker consumer and
// producer are external collaborators: the consumer layer hands
// single messages to worker.Dispatcher, and client.Client publishes
// outbound job requests through any broker.Publisher implementation.
//
// # Quick Start
//
//	cfg := conveyor.DefaultWorkerConfig()
//	cfg.Cluster = "prod"
//	cfg.Topic = "notifications"
//	cfg.Subscription = "email-worker"
//	cfg.Jobs = []job.Name{"send_email"}
//
//	d := worker.NewDispatcher(cfg, emailWorker, logger)
//	results, err := d.HandleMessage(ctx, msg)
package conveyor
