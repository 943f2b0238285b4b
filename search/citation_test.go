package search

import (
	"testing"

	"github.com/poiesic/stoa/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCitation(t *testing.T) {
	t.Run("source and reference", func(t *testing.T) {
		citation := ParseCitation("meditations 6.26")
		require.NotNil(t, citation)
		assert.Equal(t, core.SourceMeditations, citation.Source)
		assert.Equal(t, 6, citation.Book)
		assert.Equal(t, "26", citation.Entry)
	})

	t.Run("bare reference", func(t *testing.T) {
		citation := ParseCitation("6.26")
		require.NotNil(t, citation)
		assert.Equal(t, core.Source(""), citation.Source)
		assert.Equal(t, 6, citation.Book)
		assert.Equal(t, "26", citation.Entry)
	})

	t.Run("free text does not match", func(t *testing.T) {
		assert.Nil(t, ParseCitation("just thinking about death"))
	})

	t.Run("letter suffix", func(t *testing.T) {
		citation := ParseCitation("enchiridion 1.5a")
		require.NotNil(t, citation)
		assert.Equal(t, "5a", citation.Entry)
	})

	t.Run("case insensitive source", func(t *testing.T) {
		citation := ParseCitation("Meditations 6.26")
		require.NotNil(t, citation)
		assert.Equal(t, core.SourceMeditations, citation.Source)
	})

	t.Run("embedded pattern does not match", func(t *testing.T) {
		assert.Nil(t, ParseCitation("read meditations 6.26 today"))
	})

	t.Run("unknown source does not match", func(t *testing.T) {
		assert.Nil(t, ParseCitation("republic 6.26"))
	})
}

func TestCitationMatches(t *testing.T) {
	key := core.EntryKey{Source: core.SourceMeditations, Book: 6, Entry: "26"}

	withSource := &Citation{Source: core.SourceMeditations, Book: 6, Entry: "26"}
	assert.True(t, withSource.Matches(key))

	otherSource := &Citation{Source: core.SourceLetters, Book: 6, Entry: "26"}
	assert.False(t, otherSource.Matches(key))

	sourceless := &Citation{Book: 6, Entry: "26"}
	assert.True(t, sourceless.Matches(key))

	var nilCitation *Citation
	assert.False(t, nilCitation.Matches(key))
}
