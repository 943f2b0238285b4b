package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/stoa/ai"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

// Searcher provides hybrid semantic and lexical search over passages.
type Searcher struct {
	entries  storage.EntryRepository
	embedder ai.Embedder
	config   *Config
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig substitutes the ranking configuration tables.
// Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(s *Searcher) error {
		if config == nil {
			config = DefaultConfig()
		}
		s.config = config
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	entries storage.EntryRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if entries == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		entries:  entries,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Options bound one search request. Zero values fall back to the
// configured defaults.
type Options struct {
	// TopK is the number of results to return. Default 10.
	TopK int

	// DiversitySoftCap overrides the per-source cap. Default from Config.
	DiversitySoftCap int
}

func (o Options) withDefaults(config *Config) Options {
	if o.TopK <= 0 {
		o.TopK = 10
	}
	if o.DiversitySoftCap <= 0 {
		o.DiversitySoftCap = config.DiversitySoftCap
	}
	return o
}

// Search ranks passages against the raw query.
// Returns up to opts.TopK results, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]*core.RankedEntry, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor ranks passages against the raw query with monitoring.
// The monitor receives callbacks at each stage of the search process.
//
// Semantic retrieval failure is recovered locally by falling back to
// lexical-only ranking; an empty corpus or an all-paths-empty query yields
// an empty result list, not an error.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.RankedEntry, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	opts = opts.withDefaults(s.config)

	monitor.Start(query)

	qc := s.newQueryContext(query)

	pool, mode := s.retrieve(ctx, qc, opts.TopK, monitor)
	if len(pool) == 0 {
		monitor.Finish(nil)
		return []*core.RankedEntry{}, nil
	}

	ranked := s.rank(pool, qc, mode)
	results := diversify(ranked, opts.TopK, opts.DiversitySoftCap)

	monitor.Finish(results)
	return results, nil
}
