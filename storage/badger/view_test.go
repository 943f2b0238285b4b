package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

func TestViewRecordAndStats(t *testing.T) {
	_, viewRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	entryID := core.ID(42)
	now := time.Now().UTC()

	views := []*core.View{
		{EntryID: entryID, Mode: core.ViewModeDaily, Timestamp: now.Add(-48 * time.Hour)},
		{EntryID: entryID, Mode: core.ViewModeRandom, Timestamp: now.Add(-24 * time.Hour)},
		{EntryID: entryID, Mode: core.ViewModeDaily, Timestamp: now},
	}
	for _, view := range views {
		if err := viewRepo.RecordView(ctx, view); err != nil {
			t.Fatalf("Failed to record view: %v", err)
		}
	}

	stats, err := viewRepo.GetViewStats(ctx, entryID)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.ViewCount != 3 {
		t.Fatalf("Expected 3 views, got %d", stats.ViewCount)
	}
	if !stats.LastSeen.Equal(now) {
		t.Fatalf("Expected last seen %v, got %v", now, stats.LastSeen)
	}
	if stats.RatingCount != 0 {
		t.Fatalf("Expected no ratings, got %d", stats.RatingCount)
	}
}

func TestViewStatsEmpty(t *testing.T) {
	_, viewRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	// An unseen entry yields zero-valued stats, not an error
	stats, err := viewRepo.GetViewStats(ctx, core.ID(7))
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.ViewCount != 0 || stats.RatingCount != 0 {
		t.Fatal("Expected zero-valued stats for unseen entry")
	}
}

func TestRateView(t *testing.T) {
	_, viewRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	entryID := core.ID(99)
	now := time.Now().UTC()

	// Rating with no views fails
	if err := viewRepo.RateView(ctx, entryID, 2); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := viewRepo.RecordView(ctx, &core.View{EntryID: entryID, Mode: core.ViewModeDaily, Timestamp: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("Failed to record view: %v", err)
	}
	if err := viewRepo.RecordView(ctx, &core.View{EntryID: entryID, Mode: core.ViewModeDaily, Timestamp: now}); err != nil {
		t.Fatalf("Failed to record view: %v", err)
	}

	if err := viewRepo.RateView(ctx, entryID, 4); !errors.Is(err, core.ErrInvalidRating) {
		t.Fatalf("Expected ErrInvalidRating, got %v", err)
	}

	if err := viewRepo.RateView(ctx, entryID, 3); err != nil {
		t.Fatalf("Failed to rate view: %v", err)
	}

	stats, err := viewRepo.GetViewStats(ctx, entryID)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.RatingCount != 1 {
		t.Fatalf("Expected 1 rating, got %d", stats.RatingCount)
	}
	if stats.AvgRating != 3.0 {
		t.Fatalf("Expected average 3.0, got %f", stats.AvgRating)
	}
}

func TestRatingAverageWindow(t *testing.T) {
	_, viewRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	entryID := core.ID(5)
	now := time.Now().UTC()

	// Five rated views; only the newest three feed the average.
	ratings := []int{1, 1, 3, 3, 3}
	for i, rating := range ratings {
		ts := now.Add(time.Duration(i-len(ratings)) * time.Hour)
		if err := viewRepo.RecordView(ctx, &core.View{EntryID: entryID, Mode: core.ViewModeRandom, Timestamp: ts}); err != nil {
			t.Fatalf("Failed to record view: %v", err)
		}
		if err := viewRepo.RateView(ctx, entryID, rating); err != nil {
			t.Fatalf("Failed to rate view: %v", err)
		}
	}

	stats, err := viewRepo.GetViewStats(ctx, entryID)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.RatingCount != 3 {
		t.Fatalf("Expected 3 counted ratings, got %d", stats.RatingCount)
	}
	if stats.AvgRating != 3.0 {
		t.Fatalf("Expected average 3.0 from newest ratings, got %f", stats.AvgRating)
	}
}

func TestAllViewStats(t *testing.T) {
	_, viewRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	for _, view := range []*core.View{
		{EntryID: 1, Mode: core.ViewModeDaily, Timestamp: now.Add(-time.Hour)},
		{EntryID: 1, Mode: core.ViewModeDaily, Timestamp: now},
		{EntryID: 2, Mode: core.ViewModeSearch, Timestamp: now},
	} {
		if err := viewRepo.RecordView(ctx, view); err != nil {
			t.Fatalf("Failed to record view: %v", err)
		}
	}

	all, err := viewRepo.AllViewStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get all stats: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries with views, got %d", len(all))
	}
	if all[1].ViewCount != 2 {
		t.Fatalf("Expected 2 views for entry 1, got %d", all[1].ViewCount)
	}
	if all[2].ViewCount != 1 {
		t.Fatalf("Expected 1 view for entry 2, got %d", all[2].ViewCount)
	}
}
