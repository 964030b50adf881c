package interpret

import (
	"sync"

	"github.com/poiesic/oneiro/core"
)

// EnqueueStatus reports what Enqueue did with a narrative.
type EnqueueStatus int

const (
	// Accepted means the narrative was appended to the queue.
	Accepted EnqueueStatus = iota
	// Duplicate means the narrative is already pending, in flight or awaiting drain.
	Duplicate
)

func (s EnqueueStatus) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Queue is a deduplicating FIFO of narratives plus the map of completed,
// not yet drained results.
//
// A narrative is in at most one of pending, in flight or results at any
// time. One lock guards all three so the membership check in Enqueue is
// atomic with respect to PopNext, Complete and Drain.
type Queue struct {
	mu       sync.Mutex
	pending  []string
	members  map[string]struct{} // pending and in flight
	results  []core.Result       // completion order
	finished map[string]struct{} // narratives in results
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		members:  make(map[string]struct{}),
		finished: make(map[string]struct{}),
	}
}

// Enqueue appends text unless it is already known. Duplicates are a no-op.
func (q *Queue) Enqueue(text string) EnqueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.members[text]; ok {
		return Duplicate
	}
	if _, ok := q.finished[text]; ok {
		return Duplicate
	}
	q.pending = append(q.pending, text)
	q.members[text] = struct{}{}
	return Accepted
}

// PopNext removes and returns the oldest pending narrative, which then
// counts as in flight until Complete is called. It never blocks.
func (q *Queue) PopNext() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return "", false
	}
	text := q.pending[0]
	q.pending[0] = ""
	q.pending = q.pending[1:]
	return text, true
}

// Complete records the result for an in-flight narrative. Results are
// immutable once written; a second Complete for the same narrative before
// it is drained is ignored.
func (q *Queue) Complete(text, interpretation string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.finished[text]; ok {
		return
	}
	delete(q.members, text)
	q.results = append(q.results, core.Result{Narrative: text, Interpretation: interpretation})
	q.finished[text] = struct{}{}
}

// Drain returns every completed result in completion order and forgets
// them. Each result is returned exactly once.
func (q *Queue) Drain() []core.Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.results
	q.results = nil
	clear(q.finished)
	if drained == nil {
		return []core.Result{}
	}
	return drained
}

// Depth returns the number of pending narratives.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Unread returns the number of results awaiting Drain.
func (q *Queue) Unread() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.results)
}
