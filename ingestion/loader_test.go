package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/oneiro/ai/mock"
	"github.com/poiesic/oneiro/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTarget(t *testing.T, name string) (Target, *mock.MockEmbedder) {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 8
	return Target{
		Name:           name,
		EmbeddingModel: name + "-model",
		Passages:       badger.NewPassageRepository(backend),
		Manifests:      badger.NewManifestRepository(backend),
		Embedder:       embedder,
	}, embedder
}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{WithRetry(2, time.Millisecond)}, opts...)
	l, err := NewLoader(opts...)
	require.NoError(t, err)
	t.Cleanup(l.Release)
	return l
}

func testDataset(t *testing.T, csv string) *Dataset {
	t.Helper()
	dataset, err := ReadCSV(strings.NewReader(csv), DefaultColumns())
	require.NoError(t, err)
	return dataset
}

func TestLoader_LoadTarget(t *testing.T) {
	ctx := context.Background()
	target, embedder := newTestTarget(t, "gist")
	var progress bytes.Buffer
	loader := newTestLoader(t, WithBatchSize(2), WithProgress(&progress))
	dataset := testDataset(t, sampleCSV)

	report, err := loader.LoadTarget(ctx, dataset, target, false)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Embedded)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 3, report.Total)
	// Two batches of at most two rows
	assert.Equal(t, 2, embedder.CallCount())
	assert.Contains(t, progress.String(), "[gist] 3/3")

	count, err := target.Passages.CountPassages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	manifest, err := target.Manifests.LoadManifest(ctx, "gist")
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, dataset.Fingerprint, manifest.Fingerprint)
	assert.Equal(t, 3, manifest.Rows)
	assert.Equal(t, "gist-model", manifest.EmbeddingModel)

	t.Run("unchanged dataset is skipped", func(t *testing.T) {
		embedder.Reset()
		report, err := loader.LoadTarget(ctx, dataset, target, false)
		require.NoError(t, err)
		assert.True(t, report.Skipped)
		assert.Equal(t, 0, embedder.CallCount())
	})

	t.Run("only changed rows are embedded", func(t *testing.T) {
		embedder.Reset()
		changed := testDataset(t, strings.Replace(sampleCSV, "Renewal and peace", "Renewal", 1))
		report, err := loader.LoadTarget(ctx, changed, target, false)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Embedded)
		assert.Equal(t, 1, report.Written)

		passages, err := target.Passages.GetPassages(ctx, changed.Passages()[1].Id)
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, "Renewal", passages[0].Interpretation)
	})

	t.Run("force re-embeds everything", func(t *testing.T) {
		embedder.Reset()
		changed := testDataset(t, strings.Replace(sampleCSV, "Renewal and peace", "Renewal", 1))
		report, err := loader.LoadTarget(ctx, changed, target, true)
		require.NoError(t, err)
		assert.False(t, report.Skipped)
		assert.Equal(t, 3, report.Embedded)
		// Identical vectors and content are not rewritten
		assert.Equal(t, 0, report.Written)
	})

	t.Run("changed embedding model reloads", func(t *testing.T) {
		embedder.Reset()
		other := target
		other.EmbeddingModel = "other-model"
		report, err := loader.LoadTarget(ctx, dataset, other, false)
		require.NoError(t, err)
		assert.False(t, report.Skipped)
	})
}

func TestLoader_ModelChange(t *testing.T) {
	ctx := context.Background()
	target, embedder := newTestTarget(t, "gist")
	loader := newTestLoader(t)
	dataset := testDataset(t, sampleCSV)

	_, err := loader.LoadTarget(ctx, dataset, target, false)
	require.NoError(t, err)

	embedder.Reset()
	embedder.Dimension = 12
	target.EmbeddingModel = "new-model"

	report, err := loader.LoadTarget(ctx, dataset, target, false)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Embedded)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 1, embedder.CallCount())

	manifest, err := target.Manifests.LoadManifest(ctx, "gist")
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, "new-model", manifest.EmbeddingModel)

	// Every stored vector now comes from the new model
	matches, err := target.Passages.FindNearest(ctx, uniformVector(12), 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	t.Run("same model afterwards is skipped", func(t *testing.T) {
		embedder.Reset()
		report, err := loader.LoadTarget(ctx, dataset, target, false)
		require.NoError(t, err)
		assert.True(t, report.Skipped)
		assert.Zero(t, embedder.CallCount())
	})
}

func uniformVector(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func TestLoader_EmbeddingRetry(t *testing.T) {
	ctx := context.Background()
	target, embedder := newTestTarget(t, "bert")
	loader := newTestLoader(t, WithRetry(3, time.Millisecond))

	var calls atomic.Int32
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("embedding server restarting")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, float32(i)}
		}
		return vectors, nil
	}

	report, err := loader.LoadTarget(ctx, testDataset(t, sampleCSV), target, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoader_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	target, embedder := newTestTarget(t, "pubmed")
	loader := newTestLoader(t)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	_, err := loader.LoadTarget(ctx, testDataset(t, sampleCSV), target, false)
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)

	manifest, err := target.Manifests.LoadManifest(ctx, "pubmed")
	require.NoError(t, err)
	assert.Nil(t, manifest, "failed load must not record a manifest")
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	good, _ := newTestTarget(t, "good")
	bad, badEmbedder := newTestTarget(t, "bad")
	badEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model not found")
	}
	invalid := Target{Name: "invalid"}

	loader := newTestLoader(t, WithPoolSize(2))
	reports, err := loader.Load(ctx, testDataset(t, sampleCSV), []Target{good, bad, invalid}, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: model not found")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	require.Len(t, reports, 1)
	assert.Equal(t, "good", reports[0].Target)
	assert.Equal(t, 3, reports[0].Written)
}

func TestNewLoader_Options(t *testing.T) {
	_, err := NewLoader(WithBatchSize(0))
	assert.Error(t, err)

	_, err = NewLoader(WithRetry(0, time.Second))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	l, err := NewLoader(WithPoolSize(-3))
	require.NoError(t, err)
	l.Release()
}
