package search

import (
	"context"
	"slices"

	"github.com/poiesic/stoa/core"
)

// FuseQueries runs the full retrieval+ranking pipeline once per query
// variant and merges the per-query rankings via reciprocal rank fusion: an
// item at 0-based rank i in one list contributes 1/(FusionK+i+1), summed
// across lists. Items that rank well across several phrasings of a topic
// beat items that rank spectacularly on only one.
//
// Queries are deduplicated and capped at MaxFusionQueries. A query whose
// pipeline fails is skipped, not fatal.
func (s *Searcher) FuseQueries(ctx context.Context, queries []string, maxResults int) ([]*core.RankedEntry, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	seen := make(map[string]bool)
	variants := make([]string, 0, len(queries))
	for _, query := range queries {
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true
		variants = append(variants, query)
		if len(variants) >= s.config.MaxFusionQueries {
			break
		}
	}
	if len(variants) == 0 {
		return []*core.RankedEntry{}, nil
	}

	type fused struct {
		entry *core.RankedEntry
		score float64
	}
	byID := make(map[core.ID]*fused)

	for _, variant := range variants {
		results, err := s.Search(ctx, variant, Options{TopK: maxResults})
		if err != nil {
			s.logger.Warn("fusion variant failed", "query", variant, "err", err)
			continue
		}

		for rank, result := range results {
			contribution := 1.0 / float64(s.config.FusionK+rank+1)
			id := result.Entry.Key.ID()
			if f, ok := byID[id]; ok {
				f.score += contribution
			} else {
				byID[id] = &fused{entry: result, score: contribution}
			}
		}
	}

	merged := make([]*fused, 0, len(byID))
	for _, f := range byID {
		merged = append(merged, f)
	}
	slices.SortFunc(merged, func(a, b *fused) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}

	results := make([]*core.RankedEntry, len(merged))
	for i, f := range merged {
		results[i] = &core.RankedEntry{
			Entry:         f.entry.Entry,
			Score:         f.score,
			WeightedScore: f.score,
		}
	}
	return results, nil
}
