package selection

import (
	"math"
	"testing"
	"time"

	"github.com/poiesic/stoa/core"
	"github.com/stretchr/testify/assert"
)

func TestBaseWeight(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()

	t.Run("never seen gets the fixed constant", func(t *testing.T) {
		item := Item{ID: 1, Source: core.SourceFragments}
		assert.Equal(t, cfg.NeverSeenWeight, cfg.baseWeight(item, now))
	})

	t.Run("recent views suppress", func(t *testing.T) {
		recent := Item{ID: 1, Source: core.SourceFragments, ViewCount: 1, LastSeen: now.Add(-24 * time.Hour)}
		stale := Item{ID: 2, Source: core.SourceFragments, ViewCount: 1, LastSeen: now.Add(-14 * 24 * time.Hour)}
		assert.Less(t, cfg.baseWeight(recent, now), cfg.baseWeight(stale, now))
	})

	t.Run("more views suppress further", func(t *testing.T) {
		few := Item{ID: 1, Source: core.SourceFragments, ViewCount: 2, LastSeen: now.Add(-7 * 24 * time.Hour)}
		many := Item{ID: 2, Source: core.SourceFragments, ViewCount: 20, LastSeen: now.Add(-7 * 24 * time.Hour)}
		assert.Less(t, cfg.baseWeight(many, now), cfg.baseWeight(few, now))
	})

	t.Run("recharge is capped", func(t *testing.T) {
		ancient := Item{ID: 1, Source: core.SourceFragments, ViewCount: 1, LastSeen: now.Add(-365 * 24 * time.Hour)}
		expected := cfg.RechargeCeiling / math.Log2(2)
		assert.InDelta(t, expected, cfg.baseWeight(ancient, now), 1e-9)
	})

	t.Run("missing last seen defaults to one recharge period", func(t *testing.T) {
		item := Item{ID: 1, Source: core.SourceFragments, ViewCount: 1}
		expected := 1.0 / math.Log2(2)
		assert.InDelta(t, expected, cfg.baseWeight(item, now), 1e-9)
	})
}

func TestWeightLayers(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()

	base := Item{ID: 1, Source: core.SourceFragments}
	baseline := cfg.Weight(base, now)

	t.Run("marked boost", func(t *testing.T) {
		marked := base
		marked.Marked = true
		assert.InDelta(t, baseline*cfg.MarkedBoost, cfg.Weight(marked, now), 1e-9)
	})

	t.Run("source priority is undamped", func(t *testing.T) {
		preferred := base
		preferred.Source = core.SourceMeditations
		assert.InDelta(t, baseline*cfg.SourcePriorities[core.SourceMeditations], cfg.Weight(preferred, now), 1e-9)
	})

	t.Run("rating feedback", func(t *testing.T) {
		loved := base
		loved.HasRating = true
		loved.AvgRating = 2.7 // rounds to 3
		assert.InDelta(t, baseline*cfg.RatingMultipliers[3], cfg.Weight(loved, now), 1e-9)

		disliked := base
		disliked.HasRating = true
		disliked.AvgRating = 1.2 // rounds to 1
		assert.InDelta(t, baseline*cfg.RatingMultipliers[1], cfg.Weight(disliked, now), 1e-9)
	})

	t.Run("no rating multiplies by one", func(t *testing.T) {
		assert.InDelta(t, baseline, cfg.Weight(base, now), 1e-9)
	})
}
