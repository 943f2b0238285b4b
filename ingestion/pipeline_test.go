package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/stoa/ai/mock"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		pipeline, err := NewPipeline(entryRepo, embedder)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(entryRepo, embedder, WithPoolSize(4))
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("nil entry repository", func(t *testing.T) {
		_, err := NewPipeline(nil, embedder)
		assert.Equal(t, ErrEntryRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(entryRepo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestIngestStoresAndEmbeds(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	pipeline, err := NewPipeline(entryRepo, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	entry := &core.Entry{
		Key:         core.EntryKey{Source: core.SourceMeditations, Book: 4, Entry: "3"},
		Text:        "Men seek retreats for themselves: houses in the country, seashores, mountains.",
		Reflectable: true,
	}

	require.NoError(t, pipeline.Ingest(ctx, entry))
	pipeline.Wait()

	stored, err := entryRepo.GetEntry(ctx, entry.Key)
	require.NoError(t, err)
	assert.Equal(t, entry.Text, stored.Text)
	assert.NotEmpty(t, stored.Vector, "async embedding must populate the vector")
}

func TestIngestRejectsInvalidEntries(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	pipeline, err := NewPipeline(entryRepo, mock.NewMockEmbedder())
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()

	t.Run("empty text", func(t *testing.T) {
		entry := &core.Entry{
			Key: core.EntryKey{Source: core.SourceMeditations, Book: 1, Entry: "1"},
		}
		err := pipeline.Ingest(ctx, entry)
		assert.True(t, errors.Is(err, core.ErrInvalidEntry))
	})

	t.Run("unknown source", func(t *testing.T) {
		entry := &core.Entry{
			Key:  core.EntryKey{Source: "republic", Book: 1, Entry: "1"},
			Text: "text",
		}
		err := pipeline.Ingest(ctx, entry)
		assert.True(t, errors.Is(err, core.ErrInvalidEntry))
	})

	t.Run("nothing stored on validation failure", func(t *testing.T) {
		all, err := entryRepo.AllEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestIngestEmbeddingFailureDoesNotFailIngest(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service unavailable")
	}

	pipeline, err := NewPipeline(entryRepo, embedder)
	require.NoError(t, err)
	defer pipeline.Release()

	ctx := context.Background()
	entry := &core.Entry{
		Key:         core.EntryKey{Source: core.SourceLetters, Book: 1, Entry: "1"},
		Text:        "A letter on the proper use of time.",
		Reflectable: true,
	}

	require.NoError(t, pipeline.Ingest(ctx, entry))
	pipeline.Wait()

	// The entry is stored even though enrichment failed
	stored, err := entryRepo.GetEntry(ctx, entry.Key)
	require.NoError(t, err)
	assert.Empty(t, stored.Vector)
}
