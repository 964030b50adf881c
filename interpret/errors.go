package interpret

import "errors"

var (
	// ErrNoSession is returned when a stage is run without a completion session.
	ErrNoSession = errors.New("no completion session available")

	// ErrNoSessionPairs is returned when no credential produced a usable session pair.
	ErrNoSessionPairs = errors.New("no session pairs could be created")

	// ErrStateRequired is returned when a worker is created without shared state.
	ErrStateRequired = errors.New("shared state required")

	// ErrPipelineRequired is returned when a worker is created without a pipeline.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrAlreadyStarted is returned when Start is called on a running worker.
	ErrAlreadyStarted = errors.New("worker already started")

	// ErrNotStarted is returned when Stop is called on a worker that never started.
	ErrNotStarted = errors.New("worker not started")

	// ErrStopTimeout is returned when in-flight work outlives the stop grace period.
	ErrStopTimeout = errors.New("in-flight work did not finish within the grace period")

	// ErrPanic wraps a panic recovered while processing a narrative.
	ErrPanic = errors.New("pipeline panicked")
)
