// Package job defines the unit of work for conveyor workers: the
// symbolic job identifier, the declared job set, and the execution
// context threaded through the middleware pipeline.
package job
