package storage

import (
	"context"

	"github.com/poiesic/stoa/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// EntryRepository provides operations for managing passages.
type EntryRepository interface {
	Repository

	// AddEntries adds one or more entries to storage.
	// IDs are derived from each entry's key; adding an existing key
	// overwrites the stored entry. Sets InsertedAt and UpdatedAt.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntries updates existing entries in place.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any entry doesn't exist.
	UpdateEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// GetEntry retrieves a single entry by its identity key.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, key core.EntryKey) (*core.Entry, error)

	// GetEntryByID retrieves a single entry by its derived ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntryByID(ctx context.Context, id core.ID) (*core.Entry, error)

	// GetEntries retrieves multiple entries by their IDs.
	// Returns only the entries that exist (no error for missing entries).
	GetEntries(ctx context.Context, ids ...core.ID) ([]*core.Entry, error)

	// GetReflectable retrieves all entries eligible for daily/random selection.
	GetReflectable(ctx context.Context) ([]*core.Entry, error)

	// AllEntries retrieves every stored entry. Order is unspecified.
	AllEntries(ctx context.Context) ([]*core.Entry, error)

	// SetReflectable toggles the Reflectable flag on an entry.
	// Returns ErrNotFound if the entry doesn't exist.
	SetReflectable(ctx context.Context, key core.EntryKey, reflectable bool) error

	// ScanContaining performs a bounded case-insensitive substring scan over
	// the given sources. An entry matches when its text contains any of the
	// given terms. Returns up to limit entries; order is unspecified.
	ScanContaining(ctx context.Context, sources []core.Source, terms []string, limit int) ([]*core.Entry, error)

	// FindSimilar finds entries whose embedding is nearest to the given
	// vector. Returns up to limit matches ordered by similarity (highest
	// first). Entries without embeddings are skipped.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SemanticMatch, error)
}

// ViewRepository provides operations for recording presentations and
// reading their per-entry aggregates.
type ViewRepository interface {
	Repository

	// RecordView appends a view record for an entry.
	RecordView(ctx context.Context, view *core.View) error

	// RateView attaches a rating (1-3) to the entry's most recent view.
	// Returns ErrNotFound if the entry has no views.
	RateView(ctx context.Context, entryID core.ID, rating int) error

	// LatestViewByMode returns the most recent view recorded with the
	// given mode, or nil if none exists.
	LatestViewByMode(ctx context.Context, mode core.ViewMode) (*core.View, error)

	// GetViewStats returns the aggregates for one entry. An entry with no
	// views yields zero-valued stats, not an error.
	GetViewStats(ctx context.Context, entryID core.ID) (*core.ViewStats, error)

	// AllViewStats returns the aggregates for every entry that has at
	// least one view, keyed by entry ID.
	AllViewStats(ctx context.Context) (map[core.ID]*core.ViewStats, error)
}
