package selection

import (
	"math"
	"time"

	"github.com/poiesic/stoa/core"
)

// Item is an entry reduced to the attributes the selection engine weighs.
type Item struct {
	ID        core.ID
	Source    core.Source
	Marked    bool
	ViewCount int
	LastSeen  time.Time
	AvgRating float64
	HasRating bool
}

// Config holds the weighting constants and the shared source-priority
// table. All fields are read-only after initialization.
type Config struct {
	// NeverSeenWeight is the base weight of an item with no views.
	NeverSeenWeight float64

	// RechargeDays is the period over which a seen item's base weight
	// recharges toward its ceiling.
	RechargeDays float64

	// RechargeCeiling caps the recharge multiplier.
	RechargeCeiling float64

	// MarkedBoost multiplies the weight of editorially marked items.
	MarkedBoost float64

	// RatingMultipliers maps a rounded average rating to a multiplier.
	// Unlisted ratings multiply by 1.0.
	RatingMultipliers map[int]float64

	// SourcePriorities is the per-source priority table, applied
	// undamped.
	SourcePriorities map[core.Source]float64
}

// DefaultConfig returns the production selection configuration.
func DefaultConfig() *Config {
	return &Config{
		NeverSeenWeight: 10.0,
		RechargeDays:    7.0,
		RechargeCeiling: 5.0,
		MarkedBoost:     1.3,
		RatingMultipliers: map[int]float64{
			1: 0.7,
			2: 1.0,
			3: 1.3,
		},
		SourcePriorities: map[core.Source]float64{
			core.SourceMeditations: 1.3,
			core.SourceEnchiridion: 1.2,
			core.SourceLetters:     1.1,
			core.SourceFragments:   1.0,
		},
	}
}

// Weight computes the item's importance as the product of four
// multiplicative layers: spaced-repetition base, editorial boost, source
// priority, and rating feedback.
func (c *Config) Weight(item Item, now time.Time) float64 {
	weight := c.baseWeight(item, now)

	if item.Marked {
		weight *= c.MarkedBoost
	}

	if priority, ok := c.SourcePriorities[item.Source]; ok {
		weight *= priority
	}

	if item.HasRating {
		rounded := int(math.Round(item.AvgRating))
		if multiplier, ok := c.RatingMultipliers[rounded]; ok {
			weight *= multiplier
		}
	}

	return weight
}

// baseWeight suppresses items seen often or recently; the suppression
// decays back toward the recharge ceiling as time passes.
func (c *Config) baseWeight(item Item, now time.Time) float64 {
	if item.ViewCount <= 0 {
		return c.NeverSeenWeight
	}

	days := c.RechargeDays
	if !item.LastSeen.IsZero() {
		days = now.Sub(item.LastSeen).Hours() / 24
	}

	recharged := math.Min(days/c.RechargeDays, c.RechargeCeiling)
	return recharged / math.Log2(float64(item.ViewCount)+1)
}
