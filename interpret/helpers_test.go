package interpret

import (
	"context"
	"math"
	"sync"

	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/retrieval"
)

// stubBackend answers queries from a fixed map.
type stubBackend struct {
	name    string
	matches map[string][]retrieval.Match
	err     error
	panics  bool

	mu      sync.Mutex
	queries []string
}

func newStubBackend(name string) *stubBackend {
	return &stubBackend{name: name, matches: make(map[string][]retrieval.Match)}
}

func (b *stubBackend) with(query, passage, interpretation string, distance float64) *stubBackend {
	b.matches[query] = append(b.matches[query], retrieval.Match{
		Passage:  passage,
		Metadata: map[string]string{retrieval.MetadataInterpretation: interpretation},
		Distance: distance,
	})
	return b
}

func (b *stubBackend) Name() string    { return b.name }
func (b *stubBackend) Available() bool { return true }

func (b *stubBackend) Query(ctx context.Context, text string, topK int) ([]retrieval.Match, error) {
	b.mu.Lock()
	b.queries = append(b.queries, text)
	b.mu.Unlock()

	if b.panics {
		panic("index corrupted")
	}
	if b.err != nil {
		return nil, b.err
	}
	m := b.matches[text]
	if len(m) > topK {
		m = m[:topK]
	}
	return m, nil
}

func (b *stubBackend) queryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}

// valid builds a valid candidate cell.
func valid(backend, subQuery int, interpretation string) core.Candidate {
	return core.Candidate{
		BackendIndex:   backend,
		SubQueryIndex:  subQuery,
		Passage:        "passage " + interpretation,
		Interpretation: interpretation,
		Distance:       0.1,
	}
}

// tableOf builds a table from rows of cells; an empty interpretation marks
// the not-found sentinel.
func tableOf(rows ...[]string) Table {
	table := make(Table, len(rows))
	for q, row := range rows {
		table[q] = make([]core.Candidate, len(row))
		for b, interp := range row {
			if interp == "" {
				table[q][b] = core.NotFound(b, q)
				continue
			}
			table[q][b] = valid(b, q, interp)
		}
	}
	return table
}

var inf = math.Inf(1)
