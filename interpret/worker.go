package interpret

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Worker processes queued narratives one at a time.
type Worker struct {
	state    *State
	pipeline *Pipeline
	config   Config
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a worker over shared state.
func NewWorker(state *State, pipeline *Pipeline, config Config) (*Worker, error) {
	if state == nil {
		return nil, ErrStateRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Worker{
		state:    state,
		pipeline: pipeline,
		config:   config,
		logger:   slog.Default().With("component", "worker"),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the processing loop. The loop runs until Stop is called or
// ctx ends; cancelling ctx also cancels in-flight calls.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true

	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.loop(jobCtx)
	w.logger.Info("worker started")
	return nil
}

// Stop raises the stop flag and waits for the in-flight narrative. If it is
// still running after the grace period its calls are cancelled, its result
// becomes the processing error text and ErrStopTimeout is returned.
func (w *Worker) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	w.state.RequestStop()

	timer := time.NewTimer(w.config.StopGrace)
	defer timer.Stop()

	select {
	case <-w.done:
		w.cancel()
		w.logger.Info("worker stopped")
		return nil
	case <-timer.C:
	}

	w.logger.Warn("in-flight work exceeded grace period, cancelling", "grace", w.config.StopGrace)
	w.cancel()
	<-w.done
	return ErrStopTimeout
}

// Done returns a channel closed when the loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-w.state.Stopping():
			return
		case <-ctx.Done():
			return
		default:
		}

		text, ok := w.state.Queue.PopNext()
		if !ok {
			w.sleep(ctx, w.config.IdleInterval)
			continue
		}

		result, err := w.process(ctx, text)
		if err != nil {
			w.logger.Error("error processing narrative", "stage", "worker", "narrative", excerpt(text, 50), "err", err)
			w.state.Queue.Complete(text, ProcessingFailed)
			w.sleep(ctx, w.config.ErrorBackoff)
			continue
		}
		w.state.Queue.Complete(text, result)
		w.logger.Info("narrative processed", "narrative", excerpt(text, 50), "queueDepth", w.state.Queue.Depth())
	}
}

// process runs the pipeline for one narrative, converting panics to errors.
func (w *Worker) process(ctx context.Context, text string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	index, pair, ok := w.state.Sessions.NextPair()
	if !ok {
		return "", ErrNoSession
	}
	w.logger.Debug("processing narrative", "sessionPair", index+1)
	return w.pipeline.Run(ctx, pair, text)
}

// sleep waits for d, returning early on stop or cancellation.
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-w.state.Stopping():
	case <-ctx.Done():
	}
}

// Interpret runs the pipeline synchronously for a single narrative using the
// next session pair, bypassing the queue. monitor may be nil.
func Interpret(ctx context.Context, state *State, pipeline *Pipeline, narrative string, monitor Monitor) (string, error) {
	_, pair, ok := state.Sessions.NextPair()
	if !ok {
		return "", ErrNoSession
	}
	return pipeline.RunWithMonitor(ctx, pair, narrative, monitor)
}
