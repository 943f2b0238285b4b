package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

// maxRatedViews bounds how many recent ratings feed the average.
const maxRatedViews = 3

// ViewRepository implements storage.ViewRepository for BadgerDB.
type ViewRepository struct {
	backend *Backend
}

var _ storage.ViewRepository = (*ViewRepository)(nil)

// NewViewRepository creates a new ViewRepository.
func NewViewRepository(backend *Backend) *ViewRepository {
	return &ViewRepository{backend: backend}
}

// Close releases repository resources.
func (r *ViewRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ViewRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// RecordView appends a view record for an entry.
func (r *ViewRepository) RecordView(ctx context.Context, view *core.View) error {
	if view.Timestamp.IsZero() {
		view.Timestamp = time.Now().UTC()
	}
	if err := core.ValidateView(view); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeViewKey(view.EntryID, view.Timestamp)
		if err := tx.Set(key, storage.MarshalView(view)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RateView attaches a rating to the entry's most recent view.
func (r *ViewRepository) RateView(ctx context.Context, entryID core.ID, rating int) error {
	if rating < 1 || rating > 3 {
		return core.ErrInvalidRating
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key, view, err := latestView(tx, entryID)
		if err != nil {
			return err
		}
		if view == nil {
			return storage.ErrNotFound
		}

		view.Rating = rating
		if err := tx.Set(key, storage.MarshalView(view)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LatestViewByMode returns the most recent view recorded with the given
// mode, or nil if none exists.
func (r *ViewRepository) LatestViewByMode(ctx context.Context, mode core.ViewMode) (*core.View, error) {
	var latest *core.View

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(viewRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var view *core.View
			err := iter.Item().Value(func(val []byte) error {
				var err error
				view, err = storage.UnmarshalView(val)
				return err
			})
			if err != nil {
				return err
			}
			if view.Mode != mode {
				continue
			}
			if latest == nil || view.Timestamp.After(latest.Timestamp) {
				latest = view
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return latest, nil
}

// GetViewStats returns the aggregates for one entry. An entry with no views
// yields zero-valued stats.
func (r *ViewRepository) GetViewStats(ctx context.Context, entryID core.ID) (*core.ViewStats, error) {
	stats := &core.ViewStats{EntryID: entryID}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return collectStats(tx, entryID, stats)
	}, false)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// AllViewStats returns the aggregates for every entry that has at least
// one view, keyed by entry ID.
func (r *ViewRepository) AllViewStats(ctx context.Context) (map[core.ID]*core.ViewStats, error) {
	type accumulator struct {
		stats   *core.ViewStats
		ratings []int
	}
	accs := make(map[core.ID]*accumulator)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(viewRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var view *core.View
			err := iter.Item().Value(func(val []byte) error {
				var err error
				view, err = storage.UnmarshalView(val)
				return err
			})
			if err != nil {
				return err
			}

			acc := accs[view.EntryID]
			if acc == nil {
				acc = &accumulator{stats: &core.ViewStats{EntryID: view.EntryID}}
				accs[view.EntryID] = acc
			}

			acc.stats.ViewCount++
			if view.Timestamp.After(acc.stats.LastSeen) {
				acc.stats.LastSeen = view.Timestamp
			}
			if view.Rating > 0 {
				acc.ratings = append(acc.ratings, view.Rating)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	result := make(map[core.ID]*core.ViewStats, len(accs))
	for id, acc := range accs {
		// Views iterate oldest-first, so the tail holds the newest ratings.
		ratings := acc.ratings
		if len(ratings) > maxRatedViews {
			ratings = ratings[len(ratings)-maxRatedViews:]
		}
		if len(ratings) > 0 {
			sum := 0
			for _, rating := range ratings {
				sum += rating
			}
			acc.stats.AvgRating = float64(sum) / float64(len(ratings))
			acc.stats.RatingCount = len(ratings)
		}
		result[id] = acc.stats
	}

	return result, nil
}

// collectStats aggregates the views of one entry into stats.
func collectStats(tx *badger.Txn, entryID core.ID, stats *core.ViewStats) error {
	prefix := makePartialViewKey(entryID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ratings []int
	for iter.Rewind(); iter.Valid(); iter.Next() {
		var view *core.View
		err := iter.Item().Value(func(val []byte) error {
			var err error
			view, err = storage.UnmarshalView(val)
			return err
		})
		if err != nil {
			return err
		}

		stats.ViewCount++
		if view.Timestamp.After(stats.LastSeen) {
			stats.LastSeen = view.Timestamp
		}
		if view.Rating > 0 {
			ratings = append(ratings, view.Rating)
		}
	}

	if len(ratings) > maxRatedViews {
		ratings = ratings[len(ratings)-maxRatedViews:]
	}
	if len(ratings) > 0 {
		sum := 0
		for _, rating := range ratings {
			sum += rating
		}
		stats.AvgRating = float64(sum) / float64(len(ratings))
		stats.RatingCount = len(ratings)
	}

	return nil
}

// latestView returns the key and record of the entry's most recent view.
func latestView(tx *badger.Txn, entryID core.ID) ([]byte, *core.View, error) {
	prefix := makePartialViewKey(entryID)

	// Reverse iteration needs a seek key past the prefix range.
	seek := make([]byte, len(prefix)+8)
	copy(seek, prefix)
	binary.BigEndian.PutUint64(seek[len(prefix):], ^uint64(0))

	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(seek); iter.Valid(); iter.Next() {
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), prefix) {
			break
		}

		var view *core.View
		err := item.Value(func(val []byte) error {
			var err error
			view, err = storage.UnmarshalView(val)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return item.KeyCopy(nil), view, nil
	}

	return nil, nil, nil
}
