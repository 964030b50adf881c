package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/storage"
)

// upsertChunkSize bounds the number of passages written per transaction.
const upsertChunkSize = 500

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) *PassageRepository {
	return &PassageRepository{
		backend: backend,
	}
}

// Close releases resources. PassageRepository has no resources to release;
// the backend is closed by its owner.
func (r *PassageRepository) Close() error {
	return nil
}

// UpsertPassages writes passages in chunks, skipping unchanged ones.
func (r *PassageRepository) UpsertPassages(ctx context.Context, passages ...*core.Passage) (int, error) {
	for _, p := range passages {
		if err := core.ValidatePassage(p); err != nil {
			return 0, err
		}
		if p.Id == 0 {
			p.Id = core.PassageID(p.Text)
		}
		if p.ContentHash == 0 {
			p.ContentHash = core.PassageHash(p.Text, p.Interpretation)
		}
	}

	written := 0
	for chunk := range slices.Chunk(passages, upsertChunkSize) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := r.upsertChunk(chunk)
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (r *PassageRepository) upsertChunk(passages []*core.Passage) (int, error) {
	written := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Stored timestamps carry microsecond precision
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, p := range passages {
			key := makePassageKey(p.Id)
			existing, err := readPassage(tx, key)
			if err != nil {
				return err
			}

			if existing != nil {
				if existing.ContentHash == p.ContentHash && slices.Equal(existing.Vector, p.Vector) {
					p.InsertedAt = existing.InsertedAt
					p.UpdatedAt = existing.UpdatedAt
					continue
				}
				p.InsertedAt = existing.InsertedAt
			} else {
				p.InsertedAt = now
			}
			p.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalPassage(p)); err != nil {
				return err
			}
			written++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return written, nil
}

// GetPassage retrieves a single passage by ID.
func (r *PassageRepository) GetPassage(ctx context.Context, id core.ID) (*core.Passage, error) {
	var result *core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPassage(tx, makePassageKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPassages retrieves multiple passages by their IDs.
func (r *PassageRepository) GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error) {
	var result []*core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			passage, err := readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if passage != nil {
				result = append(result, passage)
			}
		}
		return nil
	}, false)
	return result, err
}

// ContentHashes returns the content hash of every embedded passage.
func (r *PassageRepository) ContentHashes(ctx context.Context) (map[core.ID]core.ID, error) {
	hashes := make(map[core.ID]core.ID)
	err := r.scan(func(p *core.Passage) error {
		if len(p.Vector) > 0 {
			hashes[p.Id] = p.ContentHash
		}
		return nil
	})
	return hashes, err
}

// CountPassages returns the number of passages in the collection.
// Only keys are read.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = passageScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindNearest performs an exhaustive cosine search over the collection.
func (r *PassageRepository) FindNearest(ctx context.Context, vector []float32, limit int) ([]*core.PassageMatch, error) {
	if limit <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.PassageMatch
	err := r.scan(func(p *core.Passage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Skip passages without embeddings or from a different model
		if len(p.Vector) != len(vector) {
			return nil
		}
		results = append(results, &core.PassageMatch{
			Passage:  p,
			Distance: cosineDistance(vector, p.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable so equal distances keep key order
	slices.SortStableFunc(results, func(a, b *core.PassageMatch) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Helper methods

// scan calls fn for every stored passage in key order.
func (r *PassageRepository) scan(fn func(p *core.Passage) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = passageScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var passage *core.Passage
			err := iter.Item().Value(func(val []byte) error {
				var err error
				passage, err = storage.UnmarshalPassage(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(passage); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readPassage reads a passage from the transaction.
func readPassage(tx *badger.Txn, key []byte) (*core.Passage, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var passage *core.Passage
	err = item.Value(func(val []byte) error {
		var err error
		passage, err = storage.UnmarshalPassage(val)
		return err
	})
	return passage, err
}
