package search

import "github.com/poiesic/stoa/core"

// SearchMonitor provides hooks to observe the ranking process.
// Implement this interface to track intermediate steps and results during
// search. All callbacks are invoked sequentially on the goroutine that
// called Search, so implementations need no synchronization of their own.
type SearchMonitor interface {
	Start(query string)
	CitationDetected(citation *Citation)
	AfterSemanticSearch(ids []core.ID)
	SemanticSearchFailed(err error)
	AfterLexicalScan(ids []core.ID)
	AfterMerge(candidates int)
	Finish(results []*core.RankedEntry)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) CitationDetected(_ *Citation)      {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ID)   {}
func (n *noopMonitor) SemanticSearchFailed(_ error)      {}
func (n *noopMonitor) AfterLexicalScan(_ []core.ID)      {}
func (n *noopMonitor) AfterMerge(_ int)                  {}
func (n *noopMonitor) Finish(_ []*core.RankedEntry)      {}
