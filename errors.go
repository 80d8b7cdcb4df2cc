package conveyor

import "errors"

var (
	// Configuration errors. These indicate a programming or wiring
	// mistake and fail loudly at call time.
	ErrUnknownJob = errors.New("conveyor: job not in worker's declared job set")
	ErrNoTopic    = errors.New("conveyor: no topic resolved for job")

	// Inbound message errors.
	ErrDecode = errors.New("conveyor: malformed inbound message")

	// Pooled execution errors.
	ErrDeadlineExceeded = errors.New("conveyor: pooled execution deadline exceeded")

	// Dispatch gating errors.
	ErrRateLimited = errors.New("conveyor: message rejected by rate limit")
)
