package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("lowercases and collapses punctuation", func(t *testing.T) {
		normalized, tokens := cfg.NormalizeQuery("  What is ANGER?!  ")
		assert.Equal(t, "what is anger", normalized)
		assert.Equal(t, []string{"anger"}, tokens)
	})

	t.Run("removes stopwords and short tokens", func(t *testing.T) {
		_, tokens := cfg.NormalizeQuery("the art of a good life")
		assert.Equal(t, []string{"art", "good", "life"}, tokens)
	})

	t.Run("deduplicates preserving first occurrence order", func(t *testing.T) {
		_, tokens := cfg.NormalizeQuery("death before death fear death")
		assert.Equal(t, []string{"death", "before", "fear"}, tokens)
	})

	t.Run("caps token count", func(t *testing.T) {
		words := []string{
			"courage", "wisdom", "justice", "temperance", "fortitude",
			"patience", "honesty", "humility", "kindness", "diligence",
			"gratitude", "serenity", "equanimity", "magnanimity",
		}
		_, tokens := cfg.NormalizeQuery(strings.Join(words, " "))
		assert.Len(t, tokens, cfg.MaxCoreTokens)
	})

	t.Run("truncates overlong queries", func(t *testing.T) {
		normalized, _ := cfg.NormalizeQuery(strings.Repeat("a", 2000))
		assert.LessOrEqual(t, len(normalized), cfg.MaxQueryLength)
	})
}

func TestExpandTokens(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("expands through synonym table", func(t *testing.T) {
		expanded := cfg.ExpandTokens([]string{"anger"})
		assert.Contains(t, expanded, "wrath")
		assert.Contains(t, expanded, "rage")
	})

	t.Run("excludes tokens already present", func(t *testing.T) {
		expanded := cfg.ExpandTokens([]string{"anger", "wrath"})
		assert.NotContains(t, expanded, "wrath")
	})

	t.Run("no expansions for unknown tokens", func(t *testing.T) {
		assert.Empty(t, cfg.ExpandTokens([]string{"xylophone"}))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, cfg.ExpandTokens(nil))
	})
}
