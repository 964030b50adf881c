package retrieval

import "context"

// MetadataInterpretation is the metadata key holding a passage's interpretation.
const MetadataInterpretation = "interpretation"

// Match is one retrieved passage.
type Match struct {
	Passage  string
	Metadata map[string]string
	Distance float64 // Non-negative, lower is better
}

// Interpretation returns the interpretation carried in the match metadata.
func (m Match) Interpretation() string {
	return m.Metadata[MetadataInterpretation]
}

// Backend is a retrieval index. Implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in prompts and logs.
	Name() string

	// Query returns up to topK matches for text, ordered by ascending distance.
	Query(ctx context.Context, text string, topK int) ([]Match, error)

	// Available reports whether the backend can serve queries at all.
	Available() bool
}

// CountAvailable returns how many backends can serve queries.
func CountAvailable(backends []Backend) int {
	n := 0
	for _, b := range backends {
		if b.Available() {
			n++
		}
	}
	return n
}
