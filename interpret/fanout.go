package interpret

import (
	"context"
	"log/slog"

	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/retrieval"
	"golang.org/x/sync/errgroup"
)

// Table holds the best candidate of every backend for every sub-query,
// indexed [subQuery][backend].
type Table [][]core.Candidate

// Candidate returns the cell for a 0-based sub-query and backend. Cells
// outside the table are the not-found sentinel.
func (t Table) Candidate(subQueryIndex, backendIndex int) core.Candidate {
	if subQueryIndex < 0 || subQueryIndex >= len(t) {
		return core.NotFound(backendIndex, subQueryIndex)
	}
	row := t[subQueryIndex]
	if backendIndex < 0 || backendIndex >= len(row) {
		return core.NotFound(backendIndex, subQueryIndex)
	}
	return row[backendIndex]
}

// FirstValid returns the first backend, in configuration order, holding a
// valid candidate for the 0-based sub-query, or core.NoSelection.
// This is the fallback for every sub-query the arbiter could not settle.
func (t Table) FirstValid(subQueryIndex int) int {
	if subQueryIndex < 0 || subQueryIndex >= len(t) {
		return core.NoSelection
	}
	for i, c := range t[subQueryIndex] {
		if c.Valid() {
			return i
		}
	}
	return core.NoSelection
}

// Fanout queries every backend with every sub-query.
type Fanout struct {
	backends []retrieval.Backend
	topK     int
	logger   *slog.Logger
}

// NewFanout creates a Fanout over backends in configuration order.
func NewFanout(backends []retrieval.Backend, topK int) *Fanout {
	if topK < 1 {
		topK = 1
	}
	return &Fanout{
		backends: backends,
		topK:     topK,
		logger:   slog.Default().With("component", "fanout"),
	}
}

// Backends returns the configured backends.
func (f *Fanout) Backends() []retrieval.Backend {
	return f.backends
}

// Query runs one sub-query against one backend. Backend failures, panics
// included, are logged and yield no candidates.
func (f *Fanout) Query(ctx context.Context, backendIndex, subQueryIndex int, subQuery string) (candidates []core.Candidate) {
	backend := f.backends[backendIndex]
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("backend query panicked",
				"stage", "fanout", "backend", backend.Name(), "subQuery", subQueryIndex+1, "panic", r)
			candidates = nil
		}
	}()

	matches, err := backend.Query(ctx, subQuery, f.topK)
	if err != nil {
		f.logger.Error("backend query failed",
			"stage", "fanout", "backend", backend.Name(), "subQuery", subQueryIndex+1, "err", err)
		return nil
	}

	candidates = make([]core.Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, core.Candidate{
			BackendIndex:   backendIndex,
			SubQueryIndex:  subQueryIndex,
			Passage:        m.Passage,
			Interpretation: m.Interpretation(),
			Distance:       m.Distance,
		})
	}
	return candidates
}

// BestOf returns the first, lowest-distance candidate, or the not-found
// sentinel for the given cell when there is none.
func BestOf(candidates []core.Candidate, backendIndex, subQueryIndex int) core.Candidate {
	if len(candidates) == 0 {
		return core.NotFound(backendIndex, subQueryIndex)
	}
	return candidates[0]
}

// Run builds the candidate table. Backends are queried concurrently; each
// backend handles its sub-queries in order. The only error returned is the
// context's.
func (f *Fanout) Run(ctx context.Context, subQueries []string) (Table, error) {
	table := make(Table, len(subQueries))
	for i := range table {
		table[i] = make([]core.Candidate, len(f.backends))
	}

	g, gctx := errgroup.WithContext(ctx)
	for b := range f.backends {
		g.Go(func() error {
			for q, subQuery := range subQueries {
				if err := gctx.Err(); err != nil {
					return err
				}
				best := BestOf(f.Query(gctx, b, q, subQuery), b, q)
				if best.Found() {
					f.logger.Debug("candidate found",
						"backend", f.backends[b].Name(), "subQuery", q+1, "distance", best.Distance)
				} else {
					f.logger.Debug("no candidate found", "backend", f.backends[b].Name(), "subQuery", q+1)
				}
				// Each goroutine owns column b
				table[q][b] = best
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}
