package interpret

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/core"
)

// Group is one interpretation and the narrative elements that produced it.
type Group struct {
	Labels         []string // First-seen order
	Interpretation string
}

// Aggregator renders the final answer from the arbiter's selections.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		logger: slog.Default().With("component", "aggregator"),
	}
}

// BuildOutput renders the grouped interpretations and, when there is at
// least one group, asks session for an overall summary. A failed summary
// call replaces the summary text but keeps the groups.
func (a *Aggregator) BuildOutput(ctx context.Context, session ai.Session, narrative string, selections core.Selections, subQueries []string, table Table) string {
	groups := GroupSelections(selections, subQueries, table)
	if len(groups) == 0 {
		a.logger.Info("no usable selections", "stage", "aggregate")
		return NoSuitableInterpretation
	}

	output := RenderGroups(groups)

	interpretations := make([]string, len(groups))
	for i, g := range groups {
		interpretations[i] = g.Interpretation
	}
	summary, err := send(ctx, session, summaryPrompt(narrative, interpretations))
	if err != nil {
		a.logger.Error("summary call failed", "stage", "summary", "err", err)
		summary = summaryFailedPrefix + err.Error()
	}

	return strings.TrimSpace(output + "\n\n" + OverallHeading + "\n" + summary)
}

// GroupSelections collects the chosen interpretations in sub-query order
// and groups identical interpretation texts. Sub-queries without a selection
// or whose chosen candidate is not valid are skipped. Sub-queries with the
// same text count once, at their first position, with the last selection.
func GroupSelections(selections core.Selections, subQueries []string, table Table) []Group {
	type entry struct {
		label          string
		interpretation string
	}

	var order []string
	entries := make(map[string]entry)
	for i, subQuery := range subQueries {
		backend, ok := selections[i+1]
		if !ok || backend == core.NoSelection {
			continue
		}
		c := table.Candidate(i, backend)
		if !c.Valid() {
			continue
		}
		if _, seen := entries[subQuery]; !seen {
			order = append(order, subQuery)
		}
		entries[subQuery] = entry{label: Label(subQuery), interpretation: c.Interpretation}
	}

	var groups []Group
	index := make(map[string]int)
	for _, subQuery := range order {
		e := entries[subQuery]
		if i, ok := index[e.interpretation]; ok {
			groups[i].Labels = append(groups[i].Labels, e.label)
			continue
		}
		index[e.interpretation] = len(groups)
		groups = append(groups, Group{Labels: []string{e.label}, Interpretation: e.interpretation})
	}
	return groups
}

// RenderGroups renders groups under the introduction. With no groups it
// states that no general interpretation is possible; BuildOutput never
// reaches that case because it returns NoSuitableInterpretation first.
func RenderGroups(groups []Group) string {
	if len(groups) == 0 {
		return OutputIntro + "\n\n" + OverallHeading + "\n" + NoGeneralInterpretation
	}
	blocks := make([]string, len(groups))
	for i, g := range groups {
		blocks[i] = "**" + strings.Join(g.Labels, ", ") + "**: " + g.Interpretation
	}
	return OutputIntro + "\n\n" + strings.Join(blocks, "\n\n")
}
