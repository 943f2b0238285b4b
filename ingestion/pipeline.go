package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/stoa/ai"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

// Pipeline orchestrates the ingestion and enrichment of passages.
// Validated entries are stored synchronously; embedding generation runs
// asynchronously on a worker pool.
type Pipeline struct {
	entryRepository storage.EntryRepository
	embeddingPool   *ants.Pool
	embeddingProc   processor
	pending         sync.WaitGroup
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	entryRepository storage.EntryRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if entryRepository == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		entryRepository: entryRepository,
		embeddingPool:   embeddingPool,
		logger:          slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	embeddingProc, err := newEmbeddingProcessor(entryRepository, embedder, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Ingest validates and stores entries, then generates their embeddings
// asynchronously. Errors during async processing are logged but do not
// fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, entries ...*core.Entry) error {
	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return err
		}
	}

	added, err := p.entryRepository.AddEntries(ctx, entries...)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return nil
	}

	ids := make([]core.ID, len(added))
	for i, entry := range added {
		ids[i] = entry.Key.ID()
	}

	p.pending.Add(1)
	submitErr := p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})
	if submitErr != nil {
		p.pending.Done()
		p.logger.Error("error submitting embedding work", "err", submitErr)
	}

	return nil
}

// Wait blocks until all submitted async processing has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
