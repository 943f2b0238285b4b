// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

const (
	// DefaultBatchSize is the default number of entries to fetch in each batch
	DefaultBatchSize = 100
)

// EntryIterator iterates over all stored entries in batches.
type EntryIterator struct {
	repo      storage.EntryRepository
	batchSize int
}

// NewEntryIterator creates a new entry iterator.
// batchSize: number of entries to process in each batch (must be > 0)
func NewEntryIterator(repo storage.EntryRepository, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntryIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all entries, calling fn for each batch.
// Iteration stops on first error from fn or when all entries are processed.
// Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.Entry) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := it.repo.AllEntries(ctx)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	for i := 0; i < len(entries); i += it.batchSize {
		end := i + it.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		if err := fn(entries[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
