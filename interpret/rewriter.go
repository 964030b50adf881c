package interpret

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/oneiro/ai"
)

// minSubQueryWords is the word count a kept sub-query line must exceed.
const minSubQueryWords = 2

var bulletPattern = regexp.MustCompile(`^[*\-–—]\s*`)

// Rewriter turns a narrative into sub-queries with one completion call.
type Rewriter struct {
	logger *slog.Logger
}

// NewRewriter creates a Rewriter.
func NewRewriter() *Rewriter {
	return &Rewriter{
		logger: slog.Default().With("component", "rewriter"),
	}
}

// Rewrite returns the sub-queries for narrative, in the order the service
// listed them. The result is never empty: if the call fails or no line
// survives parsing, the single fallback sub-query is returned.
func (r *Rewriter) Rewrite(ctx context.Context, session ai.Session, narrative string) []string {
	reply, err := send(ctx, session, rewritePrompt(narrative))
	if err != nil {
		r.logger.Error("rewrite call failed, using narrative as the only sub-query", "stage", "rewrite", "err", err)
		return []string{FallbackSubQuery(narrative)}
	}

	queries := ParseSubQueries(reply)
	if len(queries) == 0 {
		r.logger.Warn("rewrite produced no usable sub-queries, using narrative as the only sub-query", "stage", "rewrite")
		return []string{FallbackSubQuery(narrative)}
	}

	r.logger.Debug("sub-queries generated", "stage", "rewrite", "count", len(queries))
	return queries
}

// ParseSubQueries extracts the sub-query lines from a rewrite reply.
// A line is kept when, after trimming and removing a leading bullet, it
// starts with LeadIn (case-insensitively), has more than two words and
// names something after the lead-in.
func ParseSubQueries(reply string) []string {
	var queries []string
	for line := range strings.Lines(reply) {
		line = strings.TrimSpace(line)
		line = bulletPattern.ReplaceAllString(line, "")
		if line == "" {
			continue
		}
		if !hasLeadIn(line) {
			continue
		}
		if len(strings.Fields(line)) <= minSubQueryWords || Label(line) == "" {
			continue
		}
		queries = append(queries, line)
	}
	return queries
}

// FallbackSubQuery is the synthetic sub-query used when rewriting fails.
func FallbackSubQuery(narrative string) string {
	return LeadIn + " " + narrative
}

func hasLeadIn(line string) bool {
	return len(line) >= len(LeadIn) && strings.EqualFold(line[:len(LeadIn)], LeadIn)
}

// Label returns the narrative element a sub-query addresses: the text after
// the lead-in, without separating punctuation.
func Label(subQuery string) string {
	label := strings.TrimSpace(subQuery)
	if hasLeadIn(label) {
		label = label[len(LeadIn):]
	}
	return strings.Trim(label, " ,:;")
}
