package interpret

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout_Run(t *testing.T) {
	snake := "In the dream a snake appeared"
	water := "In the dream I saw water"

	first := newStubBackend("first").
		with(snake, "a snake in the grass", "hidden enemies", 0.1).
		with(snake, "a snake on a tree", "a rival", 0.4)
	second := newStubBackend("second").
		with(water, "clear water", "renewal", 0.2)
	broken := newStubBackend("broken")
	broken.err = errors.New("collection missing")
	unstable := newStubBackend("unstable")
	unstable.panics = true

	backends := []retrieval.Backend{first, second, broken, unstable, retrieval.Unavailable("offline", nil)}
	f := NewFanout(backends, 5)

	table, err := f.Run(context.Background(), []string{snake, water})
	require.NoError(t, err)
	require.Len(t, table, 2)
	require.Len(t, table[0], len(backends))

	best := table.Candidate(0, 0)
	assert.Equal(t, "hidden enemies", best.Interpretation)
	assert.Equal(t, 0.1, best.Distance)
	assert.Equal(t, 0, best.BackendIndex)
	assert.Equal(t, 0, best.SubQueryIndex)

	assert.False(t, table.Candidate(0, 1).Found())
	assert.Equal(t, "renewal", table.Candidate(1, 1).Interpretation)

	for b := 2; b < len(backends); b++ {
		for q := 0; q < 2; q++ {
			c := table.Candidate(q, b)
			assert.True(t, math.IsInf(c.Distance, 1), "backend %d sub-query %d", b, q)
			assert.Equal(t, b, c.BackendIndex)
			assert.Equal(t, q, c.SubQueryIndex)
		}
	}

	assert.Equal(t, 2, first.queryCount())
	assert.Equal(t, 2, unstable.queryCount())
}

func TestFanout_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFanout([]retrieval.Backend{newStubBackend("a")}, 5)
	_, err := f.Run(ctx, []string{"In the dream water"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFanout_TopK(t *testing.T) {
	b := newStubBackend("a").
		with("q", "p1", "i1", 0.1).
		with("q", "p2", "i2", 0.2)
	f := NewFanout([]retrieval.Backend{b}, 1)

	got := f.Query(context.Background(), 0, 0, "q")
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].Interpretation)
}

func TestBestOf(t *testing.T) {
	c := BestOf(nil, 2, 3)
	assert.False(t, c.Found())
	assert.Equal(t, 2, c.BackendIndex)
	assert.Equal(t, 3, c.SubQueryIndex)

	candidates := []core.Candidate{valid(0, 0, "first"), valid(0, 0, "second")}
	assert.Equal(t, "first", BestOf(candidates, 0, 0).Interpretation)
}

func TestTable_FirstValid(t *testing.T) {
	table := tableOf(
		[]string{"", "b", "c"},
		[]string{"", "", ""},
	)
	// A found candidate without an interpretation does not count
	table[0][1].Interpretation = ""

	assert.Equal(t, 2, table.FirstValid(0))
	assert.Equal(t, core.NoSelection, table.FirstValid(1))
	assert.Equal(t, core.NoSelection, table.FirstValid(5))
	assert.Equal(t, core.NoSelection, table.FirstValid(-1))

	assert.Equal(t, inf, table.Candidate(9, 0).Distance)
	assert.Equal(t, inf, table.Candidate(0, 9).Distance)
}
