package retrieval

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/storage"
)

// VectorBackend answers queries by nearest-neighbour search over embedded passages.
type VectorBackend struct {
	name       string
	embedder   ai.Embedder
	repository storage.PassageRepository
	logger     *slog.Logger
}

var _ Backend = (*VectorBackend)(nil)

// NewVectorBackend creates a backend over repository. Query texts are
// embedded with embedder, which must be the model the passages were
// embedded with.
func NewVectorBackend(name string, embedder ai.Embedder, repository storage.PassageRepository) (*VectorBackend, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	return &VectorBackend{
		name:       name,
		embedder:   embedder,
		repository: repository,
		logger:     slog.Default().With("component", "vector-backend", "backend", name),
	}, nil
}

func (b *VectorBackend) Name() string {
	return b.name
}

func (b *VectorBackend) Available() bool {
	return true
}

// Query embeds text and returns the closest passages.
func (b *VectorBackend) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	vector, err := b.embedder.EmbedText(ctx, text)
	if err != nil {
		b.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ErrEmptyEmbedding
	}

	found, err := b.repository.FindNearest(ctx, vector, topK)
	if err != nil {
		b.logger.Error("error querying for nearest passages", "err", err)
		return nil, err
	}

	matches := make([]Match, 0, len(found))
	for _, f := range found {
		matches = append(matches, Match{
			Passage: f.Passage.Text,
			Metadata: map[string]string{
				MetadataInterpretation: f.Passage.Interpretation,
				"id":                   strconv.FormatUint(uint64(f.Passage.Id), 10),
			},
			Distance: f.Distance,
		})
	}

	b.logger.Debug("query complete", "matches", len(matches))
	return matches, nil
}
