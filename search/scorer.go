package search

import (
	"slices"
	"strings"

	"github.com/poiesic/stoa/core"
)

// lexicalScore computes the raw lexical relevance of one candidate text.
// Terms with a zero denominator contribute zero.
func (s *Searcher) lexicalScore(text string, qc *queryContext, key core.EntryKey) float64 {
	cfg := s.config
	lowered := strings.ToLower(text)
	score := 0.0

	if len(qc.normalized) > 0 && strings.Contains(lowered, qc.normalized) {
		score += cfg.VerbatimWeight
	}

	if len(qc.coreTokens) > 0 {
		matched := 0
		occurrences := 0
		for _, token := range qc.coreTokens {
			count := strings.Count(lowered, token)
			if count > 0 {
				matched++
			}
			occurrences += min(count, cfg.OccurrenceCap)
		}
		score += cfg.CoverageWeight * float64(matched) / float64(len(qc.coreTokens))

		density := float64(occurrences) / float64(len(qc.coreTokens)*2)
		score += cfg.OccurrenceWeight * min(density, 1.0)
	}

	if len(qc.expanded) > 0 {
		matched := 0
		for _, token := range qc.expanded {
			if strings.Contains(lowered, token) {
				matched++
			}
		}
		score += cfg.ExpandedWeight * float64(matched) / float64(len(qc.expanded))
	}

	if qc.citation.Matches(key) {
		score += cfg.CitationWeight
	}

	return score
}

// normalizeSemantic min-max scales a raw semantic score to [0,1] with
// degeneracy guards. A near-constant score set within a known cosine range
// is clamped from that range instead of being stretched to the full unit
// interval, which would manufacture false separation.
func (c *Config) normalizeSemantic(value, lo, hi float64) float64 {
	if hi <= 0 {
		return 0
	}
	if hi == lo {
		return 1
	}
	if hi-lo < c.NarrowSpread {
		if lo >= 0 && hi <= 1 {
			return clampUnit(value)
		}
		if lo >= -1 && hi <= 1 {
			return clampUnit((value + 1) / 2)
		}
	}
	return (value - lo) / (hi - lo)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// rank scores the candidate pool and returns it sorted by blended score,
// descending, ties broken by raw semantic score.
func (s *Searcher) rank(pool map[core.ID]*core.Candidate, qc *queryContext, mode blendMode) []*core.RankedEntry {
	if len(pool) == 0 {
		return nil
	}

	type scored struct {
		ranked   *core.RankedEntry
		semantic float64
	}

	// Raw lexical scores and distribution bounds
	lexMax := 0.0
	semLo, semHi := 0.0, 0.0
	first := true
	for _, candidate := range pool {
		candidate.Lexical = s.lexicalScore(candidate.Entry.Text, qc, candidate.Entry.Key)
		if candidate.Lexical > lexMax {
			lexMax = candidate.Lexical
		}
		if candidate.HasSemantic {
			if first {
				semLo, semHi = candidate.Semantic, candidate.Semantic
				first = false
			} else {
				semLo = min(semLo, candidate.Semantic)
				semHi = max(semHi, candidate.Semantic)
			}
		}
	}

	results := make([]scored, 0, len(pool))
	for _, candidate := range pool {
		lexNorm := 0.0
		if lexMax > 0 {
			lexNorm = candidate.Lexical / lexMax
		}

		var blended float64
		switch mode {
		case semanticBlend:
			semNorm := 0.0
			if candidate.HasSemantic {
				semNorm = s.config.normalizeSemantic(candidate.Semantic, semLo, semHi)
			}
			blended = semNorm*s.config.SemanticBlendWeight + lexNorm*s.config.LexicalBlendWeight
		default:
			blended = lexNorm
		}

		results = append(results, scored{
			ranked: &core.RankedEntry{
				Entry:         candidate.Entry,
				Score:         blended,
				WeightedScore: blended * s.config.SourceBoost(candidate.Entry.Key.Source),
			},
			semantic: candidate.Semantic,
		})
	}

	slices.SortFunc(results, func(a, b scored) int {
		if a.ranked.WeightedScore != b.ranked.WeightedScore {
			if a.ranked.WeightedScore > b.ranked.WeightedScore {
				return -1
			}
			return 1
		}
		if a.semantic != b.semantic {
			if a.semantic > b.semantic {
				return -1
			}
			return 1
		}
		return 0
	})

	ranked := make([]*core.RankedEntry, len(results))
	for i, r := range results {
		ranked[i] = r.ranked
	}
	return ranked
}
