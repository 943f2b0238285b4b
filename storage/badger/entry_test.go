package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

func newTestEntry(source core.Source, book int, ref, text string) *core.Entry {
	return &core.Entry{
		Key:         core.EntryKey{Source: source, Book: book, Entry: ref},
		Text:        text,
		Reflectable: true,
	}
}

func TestEntryBasics(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	entry := newTestEntry(core.SourceMeditations, 6, "26", "When you are offended at any man's fault, turn to yourself.")

	added, err := entryRepo.AddEntries(ctx, entry)
	if err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(added))
	}
	if added[0].InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	// Retrieval by key and by derived ID must agree
	byKey, err := entryRepo.GetEntry(ctx, entry.Key)
	if err != nil {
		t.Fatalf("Failed to get entry by key: %v", err)
	}
	byID, err := entryRepo.GetEntryByID(ctx, entry.Key.ID())
	if err != nil {
		t.Fatalf("Failed to get entry by ID: %v", err)
	}
	if byKey.Text != entry.Text || byID.Text != entry.Text {
		t.Fatal("Retrieved text does not match stored text")
	}

	// Re-adding the same key overwrites, not duplicates
	entry2 := newTestEntry(core.SourceMeditations, 6, "26", "Updated rendering of the same passage.")
	if _, err := entryRepo.AddEntries(ctx, entry2); err != nil {
		t.Fatalf("Failed to re-add entry: %v", err)
	}
	again, err := entryRepo.GetEntry(ctx, entry.Key)
	if err != nil {
		t.Fatalf("Failed to get entry after overwrite: %v", err)
	}
	if again.Text != entry2.Text {
		t.Fatalf("Expected overwritten text, got %q", again.Text)
	}
}

func TestEntryNotFound(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	key := core.EntryKey{Source: core.SourceEnchiridion, Book: 1, Entry: "1"}
	if _, err := entryRepo.GetEntry(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	missing := newTestEntry(core.SourceEnchiridion, 1, "1", "text")
	if _, err := entryRepo.UpdateEntries(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on update, got %v", err)
	}
}

func TestSetReflectable(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	entry := newTestEntry(core.SourceLetters, 12, "6", "No man is crushed by misfortune unless he has first been deceived by prosperity.")
	if _, err := entryRepo.AddEntries(ctx, entry); err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}

	if err := entryRepo.SetReflectable(ctx, entry.Key, false); err != nil {
		t.Fatalf("Failed to set reflectable: %v", err)
	}

	reflectable, err := entryRepo.GetReflectable(ctx)
	if err != nil {
		t.Fatalf("Failed to get reflectable entries: %v", err)
	}
	if len(reflectable) != 0 {
		t.Fatalf("Expected no reflectable entries, got %d", len(reflectable))
	}

	if err := entryRepo.SetReflectable(ctx, entry.Key, true); err != nil {
		t.Fatalf("Failed to set reflectable: %v", err)
	}
	reflectable, err = entryRepo.GetReflectable(ctx)
	if err != nil {
		t.Fatalf("Failed to get reflectable entries: %v", err)
	}
	if len(reflectable) != 1 {
		t.Fatalf("Expected 1 reflectable entry, got %d", len(reflectable))
	}
}

func TestScanContaining(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	entries := []*core.Entry{
		newTestEntry(core.SourceMeditations, 2, "1", "Say to yourself in the morning: I shall meet with meddling, ungrateful, violent men."),
		newTestEntry(core.SourceMeditations, 11, "18", "Consider how much more you suffer from your anger and grief than from those very things."),
		newTestEntry(core.SourceEnchiridion, 1, "5", "Men are disturbed not by things, but by the views which they take of things."),
	}
	if _, err := entryRepo.AddEntries(ctx, entries...); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	// Case-insensitive match within the allowed sources only
	found, err := entryRepo.ScanContaining(ctx, []core.Source{core.SourceMeditations}, []string{"ANGER"}, 10)
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(found))
	}
	if found[0].Key.Book != 11 {
		t.Fatalf("Expected book 11, got %d", found[0].Key.Book)
	}

	// Term present only in an excluded source yields nothing
	found, err = entryRepo.ScanContaining(ctx, []core.Source{core.SourceMeditations}, []string{"disturbed"}, 10)
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("Expected 0 matches, got %d", len(found))
	}

	// Limit is respected
	found, err = entryRepo.ScanContaining(ctx, core.KnownSources(), []string{"things", "anger", "men"}, 2)
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(found))
	}
}

func TestFindSimilar(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	a := newTestEntry(core.SourceMeditations, 1, "1", "first")
	a.Vector = []float32{1, 0, 0}
	b := newTestEntry(core.SourceMeditations, 1, "2", "second")
	b.Vector = []float32{0.6, 0.8, 0}
	c := newTestEntry(core.SourceMeditations, 1, "3", "third, no embedding")

	if _, err := entryRepo.AddEntries(ctx, a, b, c); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	matches, err := entryRepo.FindSimilar(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches (unembedded entry skipped), got %d", len(matches))
	}
	if matches[0].Entry.Key.Entry != "1" {
		t.Fatalf("Expected exact match first, got %s", matches[0].Entry.Key.String())
	}
	if matches[0].Score <= matches[1].Score {
		t.Fatal("Expected descending score order")
	}

	matches, err = entryRepo.FindSimilar(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected limit to cap matches, got %d", len(matches))
	}
}

func TestAllEntries(t *testing.T) {
	entryRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	entries := []*core.Entry{
		newTestEntry(core.SourceMeditations, 4, "3", "Men seek retreats for themselves."),
		newTestEntry(core.SourceFragments, 1, "2", "A fragment."),
	}
	if _, err := entryRepo.AddEntries(ctx, entries...); err != nil {
		t.Fatalf("Failed to add entries: %v", err)
	}

	all, err := entryRepo.AllEntries(ctx)
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(all))
	}
}
