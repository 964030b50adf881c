package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/oneiro/ai/mock"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupVectorBackend(t *testing.T) (*VectorBackend, *mock.MockEmbedder) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 16

	ctx := context.Background()
	texts := []string{"a snake in the grass", "clear running water", "falling from a tower"}
	interps := []string{"hidden enemies", "renewal and peace", "loss of status"}
	vectors, err := embedder.EmbedTexts(ctx, texts)
	require.NoError(t, err)

	passages := make([]*core.Passage, len(texts))
	for i := range texts {
		passages[i] = &core.Passage{Text: texts[i], Interpretation: interps[i], Vector: vectors[i]}
	}
	_, err = repo.UpsertPassages(ctx, passages...)
	require.NoError(t, err)

	vb, err := NewVectorBackend("test-model", embedder, repo)
	require.NoError(t, err)
	return vb, embedder
}

func TestNewVectorBackend(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	embedder := mock.NewMockEmbedder()

	_, err = NewVectorBackend("", embedder, repo)
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewVectorBackend("m", nil, repo)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewVectorBackend("m", embedder, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestVectorBackend_Query(t *testing.T) {
	vb, embedder := setupVectorBackend(t)
	ctx := context.Background()

	t.Run("exact text is the closest match", func(t *testing.T) {
		matches, err := vb.Query(ctx, "clear running water", 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "clear running water", matches[0].Passage)
		assert.Equal(t, "renewal and peace", matches[0].Interpretation())
		assert.InDelta(t, 0.0, matches[0].Distance, 1e-5)
		assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
		assert.NotEmpty(t, matches[0].Metadata["id"])
	})

	t.Run("topK bounds the result", func(t *testing.T) {
		matches, err := vb.Query(ctx, "anything", 10)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})

	t.Run("invalid topK is an error", func(t *testing.T) {
		_, err := vb.Query(ctx, "anything", 0)
		assert.Error(t, err)
	})

	t.Run("embedding failure is returned", func(t *testing.T) {
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		}
		defer func() { embedder.EmbedTextFunc = nil }()

		_, err := vb.Query(ctx, "anything", 1)
		assert.EqualError(t, err, "embedding service down")
	})

	t.Run("empty embedding is an error", func(t *testing.T) {
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, nil
		}
		defer func() { embedder.EmbedTextFunc = nil }()

		_, err := vb.Query(ctx, "anything", 1)
		assert.ErrorIs(t, err, ErrEmptyEmbedding)
	})
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("disk missing")
	b := Unavailable("broken", cause)

	assert.Equal(t, "broken", b.Name())
	assert.False(t, b.Available())
	assert.Equal(t, cause, b.Cause())

	matches, err := b.Query(context.Background(), "anything", 5)
	assert.NoError(t, err)
	assert.Empty(t, matches)

	assert.ErrorIs(t, Unavailable("x", nil).Cause(), ErrUnavailable)
}

func TestCountAvailable(t *testing.T) {
	vb, _ := setupVectorBackend(t)
	backends := []Backend{vb, Unavailable("a", nil), vb}
	assert.Equal(t, 2, CountAvailable(backends))
	assert.Equal(t, 0, CountAvailable(nil))
}
