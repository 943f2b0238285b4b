package selection

import (
	"time"

	"github.com/poiesic/stoa/core"
)

// Selector picks one item from a weighted set.
type Selector struct {
	config *Config
}

// NewSelector creates a selector with the given configuration.
// A nil config uses DefaultConfig().
func NewSelector(config *Config) *Selector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Selector{config: config}
}

// PickDaily selects one item deterministically for the given date string.
// Same date, same item list (same order), same weights: same result, every
// time, independent of unrelated calls.
func (s *Selector) PickDaily(items []Item, date string) (core.ID, error) {
	return s.pick(items, newMulberry32(seedFromString(date)), time.Now())
}

// PickRandom selects one item with probability proportional to weight,
// with no reproducibility guarantee.
func (s *Selector) PickRandom(items []Item) (core.ID, error) {
	return s.pick(items, systemSource{}, time.Now())
}

// pick performs single-pass streaming weighted reservoir sampling: each
// item replaces the held selection with probability weight/runningTotal
// after its weight joins the total. One pass, O(1) auxiliary state, and a
// selection drawn exactly proportional to weight regardless of input order.
func (s *Selector) pick(items []Item, rng randomSource, now time.Time) (core.ID, error) {
	if len(items) == 0 {
		return 0, ErrNoItems
	}

	var (
		selected     core.ID
		hasSelection bool
		runningTotal float64
	)

	for _, item := range items {
		weight := s.config.Weight(item, now)
		if weight <= 0 {
			continue
		}
		runningTotal += weight
		if rng.Float64() < weight/runningTotal {
			selected = item.ID
			hasSelection = true
		}
	}

	if !hasSelection {
		// The first positive-weight item always wins its own draw with
		// probability 1, so reaching here means no positive weight existed.
		return 0, ErrNoPositiveWeight
	}

	return selected, nil
}
