package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/stoa/ai"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage"
)

// embeddingProcessor generates embeddings for stored entries.
type embeddingProcessor struct {
	entryRepository storage.EntryRepository
	embedder        ai.Embedder
	logger          *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(entryRepository storage.EntryRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if entryRepository == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		entryRepository: entryRepository,
		embedder:        embedder,
		logger:          logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified entries.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing entries for embeddings", "entries", len(ids))

	slices.Sort(ids)

	entries, err := ep.entryRepository.GetEntries(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving entries", "err", err)
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Text
	}

	ep.logger.Debug("generating embeddings for entries", "entries", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(entries) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(entries), len(embeddings))
	}

	for i := range embeddings {
		entries[i].Vector = embeddings[i]
	}

	_, err = ep.entryRepository.UpdateEntries(ctx, entries...)
	return err
}
