package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Entry IDs are derived from the entry's identity key so that identical
// keys always map to the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies one text collection in the corpus.
type Source string

const (
	// SourceMeditations is Marcus Aurelius' Meditations (book.entry).
	SourceMeditations Source = "meditations"
	// SourceEnchiridion is Epictetus' Enchiridion (chapter.entry).
	SourceEnchiridion Source = "enchiridion"
	// SourceLetters is Seneca's Letters to Lucilius (letter.section).
	SourceLetters Source = "letters"
	// SourceFragments holds fragments attributed to the early Stoics.
	SourceFragments Source = "fragments"
)

// KnownSources returns the fixed set of corpus identifiers.
func KnownSources() []Source {
	return []Source{SourceMeditations, SourceEnchiridion, SourceLetters, SourceFragments}
}

// ValidSource reports whether s is one of the known corpus identifiers.
func ValidSource(s Source) bool {
	switch s {
	case SourceMeditations, SourceEnchiridion, SourceLetters, SourceFragments:
		return true
	}
	return false
}

// EntryKey is the identity of a passage: unique across the corpus.
// Entry may carry a single lowercase letter suffix ("5a") where a
// source subdivides its numbered entries.
type EntryKey struct {
	Source Source
	Book   int
	Entry  string
}

// String renders the key in the citation form "source book.entry".
func (k EntryKey) String() string {
	return fmt.Sprintf("%s %d.%s", k.Source, k.Book, k.Entry)
}

// ID derives the deterministic ID for this key.
func (k EntryKey) ID() ID {
	return IDFromContent(fmt.Sprintf("%s:%d:%s", k.Source, k.Book, k.Entry))
}

// Entry represents a single passage. Entries are immutable after ingestion
// except for the Reflectable flag, which an admin action may toggle.
type Entry struct {
	Key         EntryKey
	Text        string
	Marked      bool      // editorial-quality flag
	Reflectable bool      // eligible for daily/random selection
	Vector      []float32 // embedding for semantic search (populated by processors)
	InsertedAt  time.Time // when the entry was inserted into the database
	UpdatedAt   time.Time // when the entry was last updated
}

// ViewMode identifies how an entry was presented.
type ViewMode int

const (
	// ViewModeDaily marks the deterministic per-day presentation.
	ViewModeDaily ViewMode = iota + 1
	// ViewModeRandom marks an unseeded random presentation.
	ViewModeRandom
	// ViewModeSearch marks a presentation inside search results.
	ViewModeSearch
)

// View records one presentation of an entry. Rating is 0 while unrated;
// a rating on the 1-3 scale may be attached after creation.
type View struct {
	EntryID   ID
	Mode      ViewMode
	Rating    int
	Timestamp time.Time
}

// ViewStats are the per-entry aggregates the selection engine consumes.
// AvgRating averages the most recent RatingCount (up to 3) ratings and is
// meaningful only when RatingCount > 0.
type ViewStats struct {
	EntryID     ID
	ViewCount   int
	LastSeen    time.Time
	AvgRating   float64
	RatingCount int
}

// SemanticMatch represents an entry surfaced by vector similarity search.
type SemanticMatch struct {
	Entry *Entry
	Score float32
}

// Candidate is an ephemeral per-query item carrying the retrieval signals
// for one entry. At least one of the two signals is present.
type Candidate struct {
	Entry       *Entry
	Semantic    float64
	HasSemantic bool
	Lexical     float64
}

// RankedEntry is one search result. Score is the blended relevance in [0,1];
// WeightedScore additionally carries the dampened source boost and is the
// value results are ordered by.
type RankedEntry struct {
	Entry         *Entry
	Score         float64
	WeightedScore float64
}
