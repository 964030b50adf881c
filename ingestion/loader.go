package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/storage"
)

// DefaultBatchSize is the number of rows embedded per request.
const DefaultBatchSize = 4000

// Target is one retrieval backend's storage and embedder.
type Target struct {
	Name           string // Collection name, also the manifest key
	EmbeddingModel string
	Passages       storage.PassageRepository
	Manifests      storage.ManifestRepository
	Embedder       ai.Embedder
}

func (t Target) validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: name required", ErrInvalidTarget)
	case t.Passages == nil:
		return fmt.Errorf("%w: %s: passage repository required", ErrInvalidTarget, t.Name)
	case t.Manifests == nil:
		return fmt.Errorf("%w: %s: manifest repository required", ErrInvalidTarget, t.Name)
	case t.Embedder == nil:
		return fmt.Errorf("%w: %s: embedder required", ErrInvalidTarget, t.Name)
	}
	return nil
}

// Report summarizes one target's load.
type Report struct {
	Target   string
	Skipped  bool // Manifest already matched the dataset
	Embedded int  // Rows sent to the embedder
	Written  int  // Passages actually written
	Total    int  // Rows in the dataset
	Elapsed  time.Duration
}

// Loader brings targets up to date with a dataset.
type Loader struct {
	pool        *ants.Pool
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithPoolSize sets how many targets load concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(l *Loader) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if l.pool != nil {
			l.pool.Release()
		}
		l.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of rows embedded per request.
func WithBatchSize(size int) Option {
	return func(l *Loader) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		l.batchSize = size
		return nil
	}
}

// WithRetry sets the attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(l *Loader) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		l.maxAttempts = maxAttempts
		l.baseDelay = baseDelay
		return nil
	}
}

// WithProgress writes per-target progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(l *Loader) error {
		l.progress = w
		return nil
	}
}

// NewLoader creates a Loader. Release must be called when done.
func NewLoader(opts ...Option) (*Loader, error) {
	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		pool:        pool,
		batchSize:   DefaultBatchSize,
		maxAttempts: 3,
		baseDelay:   time.Second,
		progress:    io.Discard,
		logger:      slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			l.Release()
			return nil, err
		}
	}
	return l, nil
}

// Release releases the worker pool.
func (l *Loader) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}

// Load loads dataset into every target concurrently. force ignores
// manifests and stored hashes so every row is re-embedded. Reports are
// returned in target order; failed targets have no report and their errors
// are joined.
func (l *Loader) Load(ctx context.Context, dataset *Dataset, targets []Target, force bool) ([]Report, error) {
	reports := make([]*Report, len(targets))
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	for i, target := range targets {
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()
			report, err := l.LoadTarget(ctx, dataset, target, force)
			if err != nil {
				l.logger.Error("error loading target", "target", target.Name, "err", err)
				fail(target.Name, err)
				return
			}
			reports[i] = &report
		})
		if err != nil {
			wg.Done()
			fail(target.Name, err)
		}
	}
	wg.Wait()

	var done []Report
	for _, r := range reports {
		if r != nil {
			done = append(done, *r)
		}
	}
	return done, errors.Join(errs...)
}

// LoadTarget loads dataset into a single target.
func (l *Loader) LoadTarget(ctx context.Context, dataset *Dataset, target Target, force bool) (Report, error) {
	if err := target.validate(); err != nil {
		return Report{}, err
	}
	logger := l.logger.With("target", target.Name)
	report := Report{Target: target.Name, Total: len(dataset.Rows)}

	reembedAll := force
	if !force {
		manifest, err := target.Manifests.LoadManifest(ctx, target.Name)
		if err != nil {
			return report, err
		}
		if manifest != nil && manifest.Fingerprint == dataset.Fingerprint && manifest.EmbeddingModel == target.EmbeddingModel {
			logger.Info("dataset unchanged, skipping target", "rows", manifest.Rows)
			report.Skipped = true
			return report, nil
		}
		// Stored vectors belong to another model's space
		if manifest != nil && manifest.EmbeddingModel != target.EmbeddingModel {
			logger.Info("embedding model changed, re-embedding every row",
				"from", manifest.EmbeddingModel, "to", target.EmbeddingModel)
			reembedAll = true
		}
	}

	stored := map[core.ID]core.ID{}
	if !reembedAll {
		var err error
		if stored, err = target.Passages.ContentHashes(ctx); err != nil {
			return report, err
		}
	}

	var pending []*core.Passage
	for _, p := range dataset.Passages() {
		if hash, ok := stored[p.Id]; ok && hash == p.ContentHash {
			continue
		}
		pending = append(pending, p)
	}
	logger.Info("loading target", "rows", len(dataset.Rows), "changed", len(pending))

	tracker := NewProgressTracker(l.progress, target.Name, len(pending), l.batchSize)
	tracker.Start()
	for batch := range slices.Chunk(pending, l.batchSize) {
		written, err := l.loadBatch(ctx, target, batch)
		if err != nil {
			tracker.Finish()
			return report, err
		}
		report.Embedded += len(batch)
		report.Written += written
		tracker.Increment(len(batch))
	}
	tracker.Finish()
	report.Elapsed = tracker.Elapsed()

	manifest := &core.Manifest{
		Collection:     target.Name,
		Fingerprint:    dataset.Fingerprint,
		Rows:           len(dataset.Rows),
		EmbeddingModel: target.EmbeddingModel,
	}
	if err := target.Manifests.SaveManifest(ctx, manifest); err != nil {
		return report, err
	}

	logger.Info("target loaded", "embedded", report.Embedded, "written", report.Written, "elapsed", report.Elapsed)
	return report, nil
}

func (l *Loader) loadBatch(ctx context.Context, target Target, batch []*core.Passage) (int, error) {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, l.maxAttempts, l.baseDelay, func(ctx context.Context) error {
		var err error
		vectors, err = target.Embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingMismatch, len(vectors), len(texts))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for i, p := range batch {
		p.Vector = vectors[i]
	}
	return target.Passages.UpsertPassages(ctx, batch...)
}
