package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/stoa/ai/mock"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(entryRepo, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(entryRepo, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(entryRepo, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil entry repository", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrEntryRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(entryRepo, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func seedCorpus(t *testing.T, entryRepo interface {
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)
}) {
	t.Helper()

	entries := []*core.Entry{
		{
			Key:  core.EntryKey{Source: core.SourceMeditations, Book: 11, Entry: "18"},
			Text: "How much more grievous are the consequences of anger than the causes of it.",
		},
		{
			Key:  core.EntryKey{Source: core.SourceMeditations, Book: 2, Entry: "1"},
			Text: "Say to yourself in the morning: I shall meet with meddling, ungrateful, violent men.",
		},
		{
			Key:  core.EntryKey{Source: core.SourceEnchiridion, Book: 1, Entry: "5"},
			Text: "Men are disturbed not by things, but by the views which they take of things.",
		},
		{
			Key:  core.EntryKey{Source: core.SourceLetters, Book: 12, Entry: "6"},
			Text: "No man is crushed by misfortune unless he has first been deceived by prosperity.",
		},
	}
	for _, entry := range entries {
		entry.Reflectable = true
	}

	_, err := entryRepo.AddEntries(context.Background(), entries...)
	require.NoError(t, err)
}

func TestSearchLexicalFallback(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedCorpus(t, entryRepo)

	// Simulated semantic index failure: ranking must degrade to
	// lexical-only, not error
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service unavailable")
	}

	searcher, err := NewSearcher(entryRepo, embedder)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "anger", Options{TopK: 5})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := false
	for _, result := range results {
		if result.Entry.Key.Book == 11 && result.Entry.Key.Entry == "18" {
			found = true
			assert.Greater(t, result.Score, 0.0)
			assert.Greater(t, result.WeightedScore, 0.0)
		}
	}
	assert.True(t, found, "verbatim match must surface in lexical-only mode")
}

func TestSearchCitation(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedCorpus(t, entryRepo)

	searcher, err := NewSearcher(entryRepo, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "meditations 11.18", Options{TopK: 3})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, core.SourceMeditations, results[0].Entry.Key.Source)
	assert.Equal(t, 11, results[0].Entry.Key.Book)
	assert.Equal(t, "18", results[0].Entry.Key.Entry)
}

func TestSearchSemanticBlend(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	// Three vectored entries at distinct similarities to the query vector,
	// plus an unvectored entry that carries the query phrase verbatim
	entries := []*core.Entry{
		{
			Key:    core.EntryKey{Source: core.SourceMeditations, Book: 4, Entry: "3"},
			Text:   "Men seek retreats for themselves in the country.",
			Vector: []float32{0.9, 0.05, 0},
		},
		{
			Key:    core.EntryKey{Source: core.SourceEnchiridion, Book: 1, Entry: "5"},
			Text:   "Men are disturbed not by things but by their opinions.",
			Vector: []float32{0.6, 0, 0.1},
		},
		{
			Key:    core.EntryKey{Source: core.SourceLetters, Book: 2, Entry: "2"},
			Text:   "Nowhere is the man who is everywhere.",
			Vector: []float32{0.2, 0.3, 0},
		},
		{
			Key:  core.EntryKey{Source: core.SourceMeditations, Book: 6, Entry: "6"},
			Text: "It is in your power to retire into yourself whenever you choose.",
		},
	}
	_, err = entryRepo.AddEntries(context.Background(), entries...)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	searcher, err := NewSearcher(entryRepo, embedder)
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "retire into yourself", Options{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Semantic ordering: similarities 0.9 / 0.6 / 0.2 min-max to 1 / 0.571 / 0,
	// blended at 0.9 semantic weight
	assert.Equal(t, core.EntryKey{Source: core.SourceMeditations, Book: 4, Entry: "3"}, results[0].Entry.Key)
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)
	assert.Equal(t, core.EntryKey{Source: core.SourceEnchiridion, Book: 1, Entry: "5"}, results[1].Entry.Key)
	assert.InDelta(t, 0.9*0.4/0.7, results[1].Score, 1e-6)

	// The verbatim lexical hit has no vector yet must be rescued into the
	// semantic result set, carrying only the lexical share of the blend
	assert.Equal(t, core.EntryKey{Source: core.SourceMeditations, Book: 6, Entry: "6"}, results[2].Entry.Key)
	assert.InDelta(t, 0.1, results[2].Score, 1e-6)

	assert.Equal(t, core.EntryKey{Source: core.SourceLetters, Book: 2, Entry: "2"}, results[3].Entry.Key)
	assert.InDelta(t, 0.0, results[3].Score, 1e-6)
}

func TestSearchEmptyCorpus(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	searcher, err := NewSearcher(entryRepo, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "virtue", Options{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchWithMonitor(t *testing.T) {
	entryRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedCorpus(t, entryRepo)

	searcher, err := NewSearcher(entryRepo, mock.NewMockEmbedder())
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = searcher.SearchWithMonitor(context.Background(), "anger", Options{TopK: 5}, monitor)
	require.NoError(t, err)

	assert.Equal(t, "anger", monitor.query)
	assert.True(t, monitor.finished)
	assert.Greater(t, monitor.merged, 0)
	assert.NoError(t, monitor.semanticErr)

	t.Run("semantic failure reaches the monitor", func(t *testing.T) {
		failing := mock.NewMockEmbedder()
		failing.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service unavailable")
		}
		searcher, err := NewSearcher(entryRepo, failing)
		require.NoError(t, err)

		monitor := &recordingMonitor{}
		_, err = searcher.SearchWithMonitor(context.Background(), "anger", Options{TopK: 5}, monitor)
		require.NoError(t, err)

		assert.Error(t, monitor.semanticErr)
		assert.True(t, monitor.finished)
	})
}

type recordingMonitor struct {
	noopMonitor
	query       string
	merged      int
	finished    bool
	semanticErr error
}

func (r *recordingMonitor) Start(query string)           { r.query = query }
func (r *recordingMonitor) AfterMerge(candidates int)    { r.merged = candidates }
func (r *recordingMonitor) SemanticSearchFailed(e error) { r.semanticErr = e }
func (r *recordingMonitor) Finish(_ []*core.RankedEntry) { r.finished = true }
