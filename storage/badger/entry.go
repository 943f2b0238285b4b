package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) *EntryRepository {
	return &EntryRepository{backend: backend}
}

// Close releases repository resources.
func (r *EntryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			entry.InsertedAt = time.Now().UTC()
			entry.UpdatedAt = entry.InsertedAt

			id := entry.Key.ID()
			key := makeEntryKey(id)
			value := storage.MarshalEntry(entry)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Source index
			sourceKey := makeEntrySourceKey(entry.Key.Source, id)
			if err := tx.Set(sourceKey, storage.MarshalID(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntries updates existing entries.
func (r *EntryRepository) UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			key := makeEntryKey(entry.Key.ID())

			old, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			entry.InsertedAt = old.InsertedAt
			entry.UpdatedAt = time.Now().UTC()

			value := storage.MarshalEntry(entry)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// GetEntry retrieves a single entry by its identity key.
func (r *EntryRepository) GetEntry(ctx context.Context, key core.EntryKey) (*core.Entry, error) {
	return r.GetEntryByID(ctx, key.ID())
}

// GetEntryByID retrieves a single entry by its derived ID.
func (r *EntryRepository) GetEntryByID(ctx context.Context, id core.ID) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntry(tx, makeEntryKey(id))
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

// GetEntries retrieves multiple entries by their IDs.
func (r *EntryRepository) GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error) {
	var result []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entry, err := readEntry(tx, makeEntryKey(id))
			if err != nil {
				return err
			}
			if entry != nil {
				result = append(result, entry)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetReflectable retrieves all entries eligible for daily/random selection.
func (r *EntryRepository) GetReflectable(ctx context.Context) ([]*core.Entry, error) {
	var results []*core.Entry
	err := r.forEachEntry(func(entry *core.Entry) error {
		if entry.Reflectable {
			results = append(results, entry)
		}
		return nil
	})
	return results, err
}

// AllEntries retrieves every stored entry.
func (r *EntryRepository) AllEntries(ctx context.Context) ([]*core.Entry, error) {
	var results []*core.Entry
	err := r.forEachEntry(func(entry *core.Entry) error {
		results = append(results, entry)
		return nil
	})
	return results, err
}

// SetReflectable toggles the Reflectable flag on an entry.
func (r *EntryRepository) SetReflectable(ctx context.Context, key core.EntryKey, reflectable bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entryKey := makeEntryKey(key.ID())
		entry, err := readEntry(tx, entryKey)
		if err != nil {
			return err
		}
		if entry == nil {
			return storage.ErrNotFound
		}

		entry.Reflectable = reflectable
		entry.UpdatedAt = time.Now().UTC()
		if err := tx.Set(entryKey, storage.MarshalEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ScanContaining performs a bounded case-insensitive substring scan over
// the given sources.
func (r *EntryRepository) ScanContaining(ctx context.Context, sources []core.Source, terms []string, limit int) ([]*core.Entry, error) {
	if limit <= 0 || len(terms) == 0 || len(sources) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(terms))
	for _, term := range terms {
		if term != "" {
			lowered = append(lowered, strings.ToLower(term))
		}
	}
	if len(lowered) == 0 {
		return nil, nil
	}

	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, source := range sources {
			if len(results) >= limit {
				break
			}

			prefix := makePartialEntrySourceKey(source)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid() && len(results) < limit; iter.Next() {
				var entryID core.ID
				if err := iter.Item().Value(func(val []byte) error {
					var err error
					entryID, err = storage.UnmarshalID(val)
					return err
				}); err != nil {
					iter.Close()
					return err
				}

				entry, err := readEntry(tx, makeEntryKey(entryID))
				if err != nil {
					iter.Close()
					return err
				}
				if entry == nil {
					continue
				}

				text := strings.ToLower(entry.Text)
				for _, term := range lowered {
					if strings.Contains(text, term) {
						results = append(results, entry)
						break
					}
				}
			}
			iter.Close()
		}
		return nil
	}, false)

	return results, err
}

// FindSimilar finds entries whose embedding is nearest to the given vector.
func (r *EntryRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SemanticMatch, error) {
	var results []*core.SemanticMatch

	err := r.forEachEntry(func(entry *core.Entry) error {
		// Skip entries without embeddings
		if len(entry.Vector) == 0 {
			return nil
		}

		// Cosine similarity (dot product for normalized vectors)
		similarity := dotProduct(vector, entry.Vector)
		results = append(results, &core.SemanticMatch{
			Entry: entry,
			Score: similarity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SemanticMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// forEachEntry iterates over every stored entry.
func (r *EntryRepository) forEachEntry(fn func(entry *core.Entry) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readEntry reads an entry from the transaction.
func readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Entry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalEntry(val)
		return unmarshalErr
	})
	return entry, err
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
