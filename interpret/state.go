package interpret

import (
	"sync"

	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/retrieval"
)

// Stats is a liveness snapshot.
type Stats struct {
	QueueDepth         int
	UnreadResults      int
	ActiveBackends     int
	ActiveSessionPairs int
}

// State is the process-wide state shared by the worker and the request
// handlers: the queue and its results, the session pool with its rotation
// counter, the backends and the stop flag.
type State struct {
	Queue    *Queue
	Sessions *SessionPool
	Backends []retrieval.Backend

	stopOnce sync.Once
	stop     chan struct{}
}

// NewState creates shared state with an empty queue.
func NewState(sessions *SessionPool, backends []retrieval.Backend) *State {
	return &State{
		Queue:    NewQueue(),
		Sessions: sessions,
		Backends: backends,
		stop:     make(chan struct{}),
	}
}

// Enqueue submits a narrative.
func (s *State) Enqueue(text string) EnqueueStatus {
	return s.Queue.Enqueue(text)
}

// Drain returns and forgets every completed result.
func (s *State) Drain() []core.Result {
	return s.Queue.Drain()
}

// Stats reports queue and resource counts.
func (s *State) Stats() Stats {
	return Stats{
		QueueDepth:         s.Queue.Depth(),
		UnreadResults:      s.Queue.Unread(),
		ActiveBackends:     retrieval.CountAvailable(s.Backends),
		ActiveSessionPairs: s.Sessions.Len(),
	}
}

// RequestStop raises the stop flag. It is safe to call more than once.
func (s *State) RequestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Stopping returns a channel closed once stop has been requested.
func (s *State) Stopping() <-chan struct{} {
	return s.stop
}
