package interpret

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/oneiro/ai/mock"
	"github.com/poiesic/oneiro/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupSelections(t *testing.T) {
	subQueries := []string{
		"In the dream a snake appeared",
		"In the dream I saw water",
		"In the dream a black snake",
		"In the dream I flew",
	}
	table := tableOf(
		[]string{"enemies", ""},
		[]string{"", "renewal"},
		[]string{"", "enemies"},
		[]string{"freedom", ""},
	)

	t.Run("identical interpretations collapse in first-seen order", func(t *testing.T) {
		selections := core.Selections{1: 0, 2: 1, 3: 1, 4: core.NoSelection}
		got := GroupSelections(selections, subQueries, table)
		want := []Group{
			{Labels: []string{"a snake appeared", "a black snake"}, Interpretation: "enemies"},
			{Labels: []string{"I saw water"}, Interpretation: "renewal"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("invalid chosen candidates are skipped", func(t *testing.T) {
		selections := core.Selections{1: 1, 2: 0, 3: 1, 4: 0}
		got := GroupSelections(selections, subQueries, table)
		want := []Group{
			{Labels: []string{"a black snake"}, Interpretation: "enemies"},
			{Labels: []string{"I flew"}, Interpretation: "freedom"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("repeated sub-query counts once with the last selection", func(t *testing.T) {
		repeated := []string{"In the dream water", "In the dream fire", "In the dream water"}
		table := tableOf(
			[]string{"first", ""},
			[]string{"heat", ""},
			[]string{"", "second"},
		)
		got := GroupSelections(core.Selections{1: 0, 2: 0, 3: 1}, repeated, table)
		want := []Group{
			{Labels: []string{"water"}, Interpretation: "second"},
			{Labels: []string{"fire"}, Interpretation: "heat"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("nothing selected", func(t *testing.T) {
		assert.Empty(t, GroupSelections(core.Selections{}, subQueries, table))
		all := core.Selections{1: core.NoSelection, 2: core.NoSelection, 3: core.NoSelection, 4: core.NoSelection}
		assert.Empty(t, GroupSelections(all, subQueries, table))
	})
}

func TestRenderGroups(t *testing.T) {
	got := RenderGroups([]Group{
		{Labels: []string{"a snake", "a black snake"}, Interpretation: "enemies"},
		{Labels: []string{"water"}, Interpretation: "renewal"},
	})
	assert.Equal(t, OutputIntro+"\n\n**a snake, a black snake**: enemies\n\n**water**: renewal", got)

	empty := RenderGroups(nil)
	assert.True(t, strings.HasPrefix(empty, OutputIntro))
	assert.True(t, strings.HasSuffix(empty, NoGeneralInterpretation))
}

func TestAggregator_BuildOutput(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator()
	subQueries := []string{"In the dream a snake appeared", "In the dream I saw water"}
	table := tableOf(
		[]string{"hidden enemies", ""},
		[]string{"", "renewal"},
	)

	t.Run("groups and summary", func(t *testing.T) {
		session := mock.NewMockSession("The dream speaks of rivals and renewal.")
		got := a.BuildOutput(ctx, session, "I saw a snake and water", core.Selections{1: 0, 2: 1}, subQueries, table)

		assert.True(t, strings.HasPrefix(got, OutputIntro))
		assert.Contains(t, got, "**a snake appeared**: hidden enemies")
		assert.Contains(t, got, "**I saw water**: renewal")
		assert.True(t, strings.HasSuffix(got, OverallHeading+"\nThe dream speaks of rivals and renewal."))

		prompts := session.Prompts()
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "The user's dream: 'I saw a snake and water'.")
		assert.Contains(t, prompts[0], "- hidden enemies\n- renewal")
	})

	t.Run("summary failure keeps the groups", func(t *testing.T) {
		session := mock.NewMockSession()
		session.SendFunc = func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		}
		got := a.BuildOutput(ctx, session, "dream", core.Selections{1: 0, 2: 1}, subQueries, table)

		assert.Contains(t, got, "**a snake appeared**: hidden enemies")
		assert.Contains(t, got, OverallHeading)
		assert.True(t, strings.HasSuffix(got, summaryFailedPrefix+"quota exceeded"))
	})

	t.Run("no usable selection skips the summary", func(t *testing.T) {
		session := mock.NewMockSession("unused")
		got := a.BuildOutput(ctx, session, "dream", core.Selections{1: core.NoSelection, 2: core.NoSelection}, subQueries, table)
		assert.Equal(t, NoSuitableInterpretation, got)

		got = a.BuildOutput(ctx, session, "dream", core.Selections{}, nil, nil)
		assert.Equal(t, NoSuitableInterpretation, got)
		assert.Equal(t, 0, session.CallCount())
	})
}
