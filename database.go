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


package stoa

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/poiesic/stoa/ai"
	"github.com/poiesic/stoa/ai/openai"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/ingestion"
	"github.com/poiesic/stoa/search"
	"github.com/poiesic/stoa/selection"
	"github.com/poiesic/stoa/storage"
	"github.com/poiesic/stoa/storage/badger"
)

// Database bundles the storage backend, repositories, and embedder behind
// one handle and acts as the factory for searchers, pipelines, and
// selection.
type Database struct {
	backend   *badger.Backend
	entryRepo storage.EntryRepository
	viewRepo  storage.ViewRepository
	embedder  ai.Embedder
	selector  *selection.Selector
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig        *ai.Config
	embedder        ai.Embedder
	selectionConfig *selection.Config
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder injects an embedder directly, bypassing the OpenAI client.
// Intended for tests.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithSelectionConfig substitutes the selection weighting tables.
func WithSelectionConfig(config *selection.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.selectionConfig = config
		}
	}
}

// NewDatabase opens (or creates) a database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig:        ai.DefaultConfig(),
		selectionConfig: selection.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:   backend,
		entryRepo: badger.NewEntryRepository(backend),
		viewRepo:  badger.NewViewRepository(backend),
		embedder:  embedder,
		selector:  selection.NewSelector(options.selectionConfig),
		logger:    slog.Default(),
	}, nil
}

// Close releases the repositories and the storage backend.
func (db *Database) Close() error {
	if err := db.viewRepo.Close(); err != nil {
		db.logger.Error("error closing view repository", "err", err)
		return err
	}
	if err := db.entryRepo.Close(); err != nil {
		db.logger.Error("error closing entry repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) EntryRepository() storage.EntryRepository {
	return db.entryRepo
}

func (db *Database) ViewRepository() storage.ViewRepository {
	return db.viewRepo
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.entryRepo, db.embedder, opts...)
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.entryRepo, db.embedder, opts...)
}

// Daily returns the pick for the given date string. The first call on the
// current date draws deterministically from the weighted set and records a
// daily view; later calls on that date return the already-chosen entry, so
// everyone sees the same passage all day even as view aggregates shift
// underneath. Calls for any other date replay that date's draw without
// recording a view, since a view stamped now would masquerade as today's
// pick.
func (db *Database) Daily(ctx context.Context, date string) (*core.Entry, error) {
	today := time.Now().UTC().Format("2006-01-02")
	if date == today {
		if latest, err := db.viewRepo.LatestViewByMode(ctx, core.ViewModeDaily); err == nil && latest != nil {
			if latest.Timestamp.UTC().Format("2006-01-02") == today {
				return db.entryRepo.GetEntryByID(ctx, latest.EntryID)
			}
		}
	}

	items, err := db.selectionItems(ctx)
	if err != nil {
		return nil, err
	}

	id, err := db.selector.PickDaily(items, date)
	if errors.Is(err, selection.ErrNoPositiveWeight) {
		// Every candidate was just seen; degrade deterministically.
		id = items[0].ID
	} else if err != nil {
		return nil, err
	}

	if date != today {
		return db.entryRepo.GetEntryByID(ctx, id)
	}
	return db.present(ctx, id, core.ViewModeDaily)
}

// Random returns a weighted random pick and records a random view of it.
func (db *Database) Random(ctx context.Context) (*core.Entry, error) {
	items, err := db.selectionItems(ctx)
	if err != nil {
		return nil, err
	}

	id, err := db.selector.PickRandom(items)
	if errors.Is(err, selection.ErrNoPositiveWeight) {
		// Every candidate was just seen; fall back to a uniform draw
		// rather than refusing to show anything.
		id = items[rand.IntN(len(items))].ID
	} else if err != nil {
		return nil, err
	}

	return db.present(ctx, id, core.ViewModeRandom)
}

// Rate attaches a rating to the most recent view of an entry.
func (db *Database) Rate(ctx context.Context, key core.EntryKey, rating int) error {
	return db.viewRepo.RateView(ctx, key.ID(), rating)
}

// SetReflectable toggles an entry's eligibility for daily/random selection.
func (db *Database) SetReflectable(ctx context.Context, key core.EntryKey, reflectable bool) error {
	return db.entryRepo.SetReflectable(ctx, key, reflectable)
}

// selectionItems joins the reflectable entries with their view aggregates.
func (db *Database) selectionItems(ctx context.Context) ([]selection.Item, error) {
	entries, err := db.entryRepo.GetReflectable(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	stats, err := db.viewRepo.AllViewStats(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]selection.Item, 0, len(entries))
	for _, entry := range entries {
		item := selection.Item{
			ID:     entry.Key.ID(),
			Source: entry.Key.Source,
			Marked: entry.Marked,
		}
		if s, ok := stats[item.ID]; ok {
			item.ViewCount = s.ViewCount
			item.LastSeen = s.LastSeen
			if s.RatingCount > 0 {
				item.AvgRating = s.AvgRating
				item.HasRating = true
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// present resolves a picked id and records its view.
func (db *Database) present(ctx context.Context, id core.ID, mode core.ViewMode) (*core.Entry, error) {
	entry, err := db.entryRepo.GetEntryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &core.View{EntryID: id, Mode: mode, Timestamp: time.Now().UTC()}
	if err := db.viewRepo.RecordView(ctx, view); err != nil {
		db.logger.Error("error recording view", "entry", entry.Key.String(), "err", err)
	}

	return entry, nil
}
