package storage

import (
	"context"

	"github.com/poiesic/oneiro/core"
)

// PassageRepository stores one collection of passages.
// Implementations must be thread-safe and support concurrent access.
type PassageRepository interface {
	// UpsertPassages writes passages keyed by their Id, assigning content
	// derived IDs and hashes where missing. A passage whose stored copy has
	// the same content hash and vector is skipped.
	// Returns the number of passages actually written.
	UpsertPassages(ctx context.Context, passages ...*core.Passage) (int, error)

	// GetPassage retrieves a single passage by ID.
	// Returns ErrNotFound if the passage doesn't exist.
	GetPassage(ctx context.Context, id core.ID) (*core.Passage, error)

	// GetPassages retrieves multiple passages by their IDs.
	// Returns only the passages that exist (no error for missing passages).
	GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error)

	// ContentHashes returns the stored content hash of every passage that
	// has an embedding, keyed by passage ID.
	ContentHashes(ctx context.Context) (map[core.ID]core.ID, error)

	// CountPassages returns the number of passages in the collection.
	CountPassages(ctx context.Context) (int, error)

	// FindNearest returns up to limit passages closest to vector, ordered by
	// ascending cosine distance. Passages without embeddings are ignored.
	FindNearest(ctx context.Context, vector []float32, limit int) ([]*core.PassageMatch, error)

	// Close releases resources held by the repository.
	Close() error
}

// ManifestRepository tracks which dataset each collection was loaded from.
type ManifestRepository interface {
	// SaveManifest persists the manifest for its collection.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest returns the manifest for collection.
	// Returns nil, nil if no manifest exists.
	LoadManifest(ctx context.Context, collection string) (*core.Manifest, error)
}
