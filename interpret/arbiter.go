package interpret

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/core"
)

const (
	queryLabel = "query"
	noneToken  = "none"
)

// Arbiter asks the completion service which backend's candidate best fits
// the original narrative for each sub-query.
type Arbiter struct {
	backendNames  []string
	excerptLength int
	logger        *slog.Logger
}

// NewArbiter creates an Arbiter. backendNames are listed in configuration
// order and numbered from 1 in the prompt.
func NewArbiter(backendNames []string, excerptLength int) *Arbiter {
	return &Arbiter{
		backendNames:  backendNames,
		excerptLength: excerptLength,
		logger:        slog.Default().With("component", "arbiter"),
	}
}

// Select returns a selection for every sub-query ordinal. If the call fails
// or session is nil, every sub-query gets the first-valid fallback.
func (a *Arbiter) Select(ctx context.Context, session ai.Session, narrative string, subQueries []string, table Table) core.Selections {
	if len(subQueries) == 0 {
		return core.Selections{}
	}

	reply, err := send(ctx, session, a.Prompt(narrative, subQueries, table))
	if err != nil {
		a.logger.Error("selection call failed, using first valid backend for every sub-query", "stage", "arbiter", "err", err)
		return fallbackAll(len(subQueries), table)
	}

	selections := ParseSelections(reply, len(subQueries), len(a.backendNames), table)
	a.logger.Debug("selections parsed", "stage", "arbiter", "selections", selections)
	return selections
}

// Prompt renders the selection prompt. Only valid candidates are listed;
// a sub-query with none is marked as having no candidates.
func (a *Arbiter) Prompt(narrative string, subQueries []string, table Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, arbiterPromptHeader, narrative)

	for q, subQuery := range subQueries {
		fmt.Fprintf(&sb, "Query %d: %s\n", q+1, subQuery)
		listed := 0
		for b, name := range a.backendNames {
			c := table.Candidate(q, b)
			if !c.Valid() {
				continue
			}
			fmt.Fprintf(&sb, "Model %d (%s): Passage='%s' Interpretation='%s'\n",
				b+1, name, excerpt(c.Passage, a.excerptLength), excerpt(c.Interpretation, a.excerptLength))
			listed++
		}
		if listed == 0 {
			sb.WriteString(noCandidatesLine + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(arbiterPromptFooter)
	return sb.String()
}

type verdictKind int

const (
	verdictBackend  verdictKind = iota // a backend in range was named
	verdictNone                        // the service rejected every backend
	verdictFallback                    // the line could not be used as given
)

// lineVerdict is the parsed meaning of one reply line.
type lineVerdict struct {
	ordinal int // 1-based sub-query ordinal
	kind    verdictKind
	backend int // 0-based, for verdictBackend
}

// parseLine interprets one reply line. ok is false for lines that are not
// selection lines or whose ordinal cannot be read.
func parseLine(line string, numBackends int) (v lineVerdict, ok bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(queryLabel) || !strings.EqualFold(line[:len(queryLabel)], queryLabel) {
		return v, false
	}

	left, right, hasColon := strings.Cut(line[len(queryLabel):], ":")
	// The ordinal is the first word; replies often echo the sub-query after it
	fields := strings.Fields(left)
	if len(fields) == 0 {
		return v, false
	}
	ordinal, err := strconv.Atoi(strings.TrimRight(fields[0], ".)"))
	if err != nil {
		return v, false
	}
	v.ordinal = ordinal

	if !hasColon {
		v.kind = verdictFallback
		return v, true
	}

	answer := strings.ToLower(strings.TrimSpace(right))
	if answer == noneToken || !isDigits(answer) {
		v.kind = verdictNone
		return v, true
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > numBackends {
		v.kind = verdictFallback
		return v, true
	}
	v.kind = verdictBackend
	v.backend = n - 1
	return v, true
}

// ParseSelections turns an arbiter reply into selections for ordinals
// 1..numSubQueries. An explicit "None" is final. Out-of-range backend
// numbers, lines without a colon and ordinals the reply never mentions
// resolve to the first valid backend for that sub-query. Lines for unknown
// ordinals are ignored; when an ordinal repeats, the last line wins.
func ParseSelections(reply string, numSubQueries, numBackends int, table Table) core.Selections {
	verdicts := make(map[int]lineVerdict, numSubQueries)
	for line := range strings.Lines(reply) {
		v, ok := parseLine(line, numBackends)
		if !ok || v.ordinal < 1 || v.ordinal > numSubQueries {
			continue
		}
		verdicts[v.ordinal] = v
	}

	selections := make(core.Selections, numSubQueries)
	for ordinal := 1; ordinal <= numSubQueries; ordinal++ {
		v, ok := verdicts[ordinal]
		if !ok {
			v = lineVerdict{ordinal: ordinal, kind: verdictFallback}
		}
		selections[ordinal] = resolve(v, table)
	}
	return selections
}

func resolve(v lineVerdict, table Table) int {
	switch v.kind {
	case verdictBackend:
		return v.backend
	case verdictNone:
		return core.NoSelection
	default:
		return table.FirstValid(v.ordinal - 1)
	}
}

func fallbackAll(numSubQueries int, table Table) core.Selections {
	selections := make(core.Selections, numSubQueries)
	for ordinal := 1; ordinal <= numSubQueries; ordinal++ {
		selections[ordinal] = table.FirstValid(ordinal - 1)
	}
	return selections
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
