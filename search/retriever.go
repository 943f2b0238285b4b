package search

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/stoa/core"
)

// blendMode selects how semantic and lexical signals combine, decided once
// per request after retrieval and threaded through scoring.
type blendMode int

const (
	// lexicalOnly is used when semantic retrieval failed or returned
	// nothing; final scores come from the lexical signal alone.
	lexicalOnly blendMode = iota

	// semanticBlend mixes normalized semantic and lexical scores.
	semanticBlend
)

// queryContext carries the derived forms of one raw query through
// retrieval and scoring.
type queryContext struct {
	raw        string
	normalized string
	coreTokens []string
	expanded   []string
	citation   *Citation
}

func (s *Searcher) newQueryContext(raw string) *queryContext {
	normalized, coreTokens := s.config.NormalizeQuery(raw)
	return &queryContext{
		raw:        raw,
		normalized: normalized,
		coreTokens: coreTokens,
		expanded:   s.config.ExpandTokens(coreTokens),
		citation:   ParseCitation(raw),
	}
}

// retrieve runs the semantic, lexical, and citation fetches concurrently
// and merges them into one candidate pool keyed by entry ID.
//
// A semantic failure degrades to an empty semantic set; it never surfaces
// to the caller. When semantic candidates exist, lexical-only hits are
// admitted solely as citation matches or strong rescues, capped at the
// rescue limit, so lexical noise cannot dilute a successful semantic
// retrieval.
func (s *Searcher) retrieve(ctx context.Context, qc *queryContext, topK int, monitor SearchMonitor) (map[core.ID]*core.Candidate, blendMode) {
	var (
		wg        sync.WaitGroup
		semantic  []*core.SemanticMatch
		semErr    error
		lexical   []*core.Entry
		citations []*core.Entry
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		matches, err := s.semanticFetch(ctx, qc.raw, topK)
		if err != nil {
			s.logger.Warn("semantic retrieval failed, continuing lexical-only", "err", err)
			semErr = err
			return
		}
		semantic = matches
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		entries, err := s.lexicalFetch(ctx, qc, topK)
		if err != nil {
			s.logger.Warn("lexical scan failed", "err", err)
			return
		}
		lexical = entries
	}()

	if qc.citation != nil {
		monitor.CitationDetected(qc.citation)
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := s.citationFetch(ctx, qc.citation)
			if err != nil {
				s.logger.Warn("citation lookup failed", "err", err)
				return
			}
			citations = entries
		}()
	}

	wg.Wait()

	// Monitor callbacks stay on the caller's goroutine
	if semErr != nil {
		monitor.SemanticSearchFailed(semErr)
	}

	pool := make(map[core.ID]*core.Candidate)

	semanticIds := make([]core.ID, 0, len(semantic))
	for _, match := range semantic {
		if match.Entry == nil {
			continue
		}
		id := match.Entry.Key.ID()
		score := float64(match.Score)
		if existing, ok := pool[id]; ok {
			// Duplicate keys keep the maximum score
			if score > existing.Semantic {
				existing.Semantic = score
			}
			continue
		}
		pool[id] = &core.Candidate{
			Entry:       match.Entry,
			Semantic:    score,
			HasSemantic: true,
		}
		semanticIds = append(semanticIds, id)
	}
	monitor.AfterSemanticSearch(semanticIds)

	mode := lexicalOnly
	if len(pool) > 0 {
		mode = semanticBlend
	}

	for _, entry := range citations {
		id := entry.Key.ID()
		if _, ok := pool[id]; !ok {
			pool[id] = &core.Candidate{Entry: entry}
		}
	}

	lexicalIds := make([]core.ID, 0, len(lexical))
	rescued := 0
	rescueLimit := s.config.RescueLimit(topK)
	for _, entry := range lexical {
		id := entry.Key.ID()
		lexicalIds = append(lexicalIds, id)
		if _, ok := pool[id]; ok {
			continue
		}
		if mode == semanticBlend {
			if rescued >= rescueLimit {
				continue
			}
			if !qc.citation.Matches(entry.Key) && !s.strongRescue(entry.Text, qc) {
				continue
			}
			rescued++
		}
		pool[id] = &core.Candidate{Entry: entry}
	}
	monitor.AfterLexicalScan(lexicalIds)
	monitor.AfterMerge(len(pool))

	return pool, mode
}

// semanticFetch embeds the raw query and asks the vector index for nearest
// neighbors.
func (s *Searcher) semanticFetch(ctx context.Context, raw string, topK int) ([]*core.SemanticMatch, error) {
	vector, err := s.embedder.EmbedText(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, nil
	}
	return s.entries.FindSimilar(ctx, vector, s.config.SemanticTopK(topK))
}

// lexicalFetch runs the bounded substring scan over the searchable sources.
func (s *Searcher) lexicalFetch(ctx context.Context, qc *queryContext, topK int) ([]*core.Entry, error) {
	terms := make([]string, 0, 1+len(qc.coreTokens)+len(qc.expanded))
	if len(qc.normalized) >= s.config.MinTokenLength {
		terms = append(terms, qc.normalized)
	}
	terms = append(terms, qc.coreTokens...)
	terms = append(terms, qc.expanded...)
	if len(terms) == 0 {
		return nil, nil
	}

	return s.entries.ScanContaining(ctx, core.KnownSources(), terms, s.config.LexicalLimit(topK))
}

// citationFetch resolves a parsed citation to its entry. A sourceless
// citation is tried against every known source.
func (s *Searcher) citationFetch(ctx context.Context, citation *Citation) ([]*core.Entry, error) {
	sources := core.KnownSources()
	if citation.Source != "" {
		sources = []core.Source{citation.Source}
	}

	var entries []*core.Entry
	for _, source := range sources {
		key := core.EntryKey{Source: source, Book: citation.Book, Entry: citation.Entry}
		entry, err := s.entries.GetEntry(ctx, key)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// strongRescue judges whether a lexical hit deserves admission alongside a
// successful semantic retrieval: the full normalized query appears verbatim
// in the text, or enough core tokens do.
func (s *Searcher) strongRescue(text string, qc *queryContext) bool {
	lowered := strings.ToLower(text)

	if len(qc.normalized) >= 4 && strings.Contains(lowered, qc.normalized) {
		return true
	}

	if len(qc.coreTokens) >= 2 {
		needed := min(3, len(qc.coreTokens))
		matched := 0
		for _, token := range qc.coreTokens {
			if strings.Contains(lowered, token) {
				matched++
				if matched >= needed {
					return true
				}
			}
		}
	}

	return false
}
