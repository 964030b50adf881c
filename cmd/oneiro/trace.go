package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/interpret"
	"github.com/poiesic/oneiro/retrieval"
)

// traceMonitor prints each pipeline stage as it completes.
type traceMonitor struct {
	w        io.Writer
	backends []string
}

var _ interpret.Monitor = (*traceMonitor)(nil)

func newTraceMonitor(w io.Writer, backends []retrieval.Backend) *traceMonitor {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	return &traceMonitor{w: w, backends: names}
}

func (m *traceMonitor) Start(narrative string) {
	fmt.Fprintf(m.w, "Narrative: %s\n\n", narrative)
}

func (m *traceMonitor) AfterRewrite(subQueries []string) {
	fmt.Fprintf(m.w, "Sub-queries (%d):\n", len(subQueries))
	for i, q := range subQueries {
		fmt.Fprintf(m.w, "  %d. %s\n", i+1, q)
	}
	fmt.Fprintln(m.w)
}

func (m *traceMonitor) AfterFanout(table interpret.Table) {
	fmt.Fprintln(m.w, "Candidates:")
	for q, row := range table {
		for b, c := range row {
			if !c.Valid() {
				fmt.Fprintf(m.w, "  query %d, %s: none\n", q+1, m.name(b))
				continue
			}
			fmt.Fprintf(m.w, "  query %d, %s: %q (distance %.4f)\n", q+1, m.name(b), c.Interpretation, c.Distance)
		}
	}
	fmt.Fprintln(m.w)
}

func (m *traceMonitor) AfterArbiter(selections core.Selections) {
	fmt.Fprintln(m.w, "Selections:")
	ordinals := make([]int, 0, len(selections))
	for q := range selections {
		ordinals = append(ordinals, q)
	}
	slices.Sort(ordinals)
	for _, q := range ordinals {
		b := selections[q]
		if b == core.NoSelection {
			fmt.Fprintf(m.w, "  query %d: none\n", q)
			continue
		}
		fmt.Fprintf(m.w, "  query %d: %s\n", q, m.name(b))
	}
	fmt.Fprintln(m.w)
}

func (m *traceMonitor) Finish(output string) {
	fmt.Fprintln(m.w, "Done.")
	fmt.Fprintln(m.w)
}

func (m *traceMonitor) name(b int) string {
	if b >= 0 && b < len(m.backends) {
		return m.backends[b]
	}
	return fmt.Sprintf("model %d", b+1)
}
