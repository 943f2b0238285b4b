// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import "github.com/poiesic/stoa/core"

// Config holds the tuning tables and constants for ranking. All fields are
// read-only after initialization; tests may substitute alternate tables
// without touching the ranking logic.
type Config struct {
	// Lexical score term weights
	VerbatimWeight   float64
	CoverageWeight   float64
	OccurrenceWeight float64
	ExpandedWeight   float64
	CitationWeight   float64

	// Occurrences of a single core token counted toward the density term
	// are capped at this many.
	OccurrenceCap int

	// Blend weights applied when semantic candidates exist. When none
	// exist the blend degenerates to lexical-only (0/1).
	SemanticBlendWeight float64
	LexicalBlendWeight  float64

	// SourceBoostDamp dampens source priority on the search side:
	// boost = 1 + (priority-1)*SourceBoostDamp.
	SourceBoostDamp float64

	// NarrowSpread is the semantic-score spread below which min-max
	// scaling would manufacture false separation; the normalizer then
	// clamps from the known cosine range instead.
	NarrowSpread float64

	// DiversitySoftCap is the per-source cap applied before backfill.
	DiversitySoftCap int

	// Candidate pool bounds, derived from the requested topK.
	SemanticTopKFactor int
	SemanticTopKMin    int
	SemanticTopKMax    int
	LexicalLimitFactor int
	LexicalLimitMin    int
	LexicalLimitMax    int
	RescueLimitFactor  int
	RescueLimitMin     int
	RescueLimitMax     int

	// Query normalization bounds
	MaxQueryLength int
	MinTokenLength int
	MaxCoreTokens  int

	// FusionK is the reciprocal-rank-fusion constant: an item at 0-based
	// rank i contributes 1/(FusionK+i+1).
	FusionK int

	// MaxFusionQueries caps how many deduplicated query variants one
	// fusion call will run.
	MaxFusionQueries int

	// Stopwords are dropped from core tokens.
	Stopwords map[string]bool

	// Synonyms maps a core token to related tokens used for expansion.
	Synonyms map[string][]string

	// SourcePriorities is the shared per-source priority table. The
	// selection engine uses it undamped; search dampens it via
	// SourceBoostDamp.
	SourcePriorities map[core.Source]float64
}

// DefaultConfig returns the production ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		VerbatimWeight:   1.2,
		CoverageWeight:   1.2,
		OccurrenceWeight: 0.8,
		ExpandedWeight:   0.25,
		CitationWeight:   2.5,
		OccurrenceCap:    3,

		SemanticBlendWeight: 0.9,
		LexicalBlendWeight:  0.1,
		SourceBoostDamp:     0.4,
		NarrowSpread:        0.05,
		DiversitySoftCap:    2,

		SemanticTopKFactor: 6,
		SemanticTopKMin:    30,
		SemanticTopKMax:    80,
		LexicalLimitFactor: 3,
		LexicalLimitMin:    30,
		LexicalLimitMax:    60,
		RescueLimitFactor:  2,
		RescueLimitMin:     20,
		RescueLimitMax:     40,

		MaxQueryLength: 500,
		MinTokenLength: 3,
		MaxCoreTokens:  12,

		FusionK:          30,
		MaxFusionQueries: 6,

		Stopwords: defaultStopwords,
		Synonyms:  defaultSynonyms,
		SourcePriorities: map[core.Source]float64{
			core.SourceMeditations: 1.3,
			core.SourceEnchiridion: 1.2,
			core.SourceLetters:     1.1,
			core.SourceFragments:   1.0,
		},
	}
}

// SourcePriority returns the priority for a source, defaulting to 1.0 for
// sources absent from the table.
func (c *Config) SourcePriority(source core.Source) float64 {
	if p, ok := c.SourcePriorities[source]; ok {
		return p
	}
	return 1.0
}

// SourceBoost returns the dampened search-side boost for a source.
func (c *Config) SourceBoost(source core.Source) float64 {
	return 1 + (c.SourcePriority(source)-1)*c.SourceBoostDamp
}

// SemanticTopK derives the vector-index fetch bound from the requested topK.
func (c *Config) SemanticTopK(topK int) int {
	return clamp(topK*c.SemanticTopKFactor, c.SemanticTopKMin, c.SemanticTopKMax)
}

// LexicalLimit derives the substring-scan bound from the requested topK.
func (c *Config) LexicalLimit(topK int) int {
	return clamp(topK*c.LexicalLimitFactor, c.LexicalLimitMin, c.LexicalLimitMax)
}

// RescueLimit derives the bound on lexical-only rescues admitted alongside
// a successful semantic retrieval.
func (c *Config) RescueLimit(topK int) int {
	return clamp(topK*c.RescueLimitFactor, c.RescueLimitMin, c.RescueLimitMax)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Stopwords dropped during query normalization
var defaultStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"his": true, "has": true, "have": true, "that": true, "this": true,
	"with": true, "they": true, "them": true, "from": true, "what": true,
	"when": true, "will": true, "your": true, "about": true, "which": true,
	"their": true, "there": true, "would": true, "should": true, "could": true,
	"into": true, "upon": true, "unto": true, "thee": true, "thou": true,
	"thy": true, "hath": true, "shall": true,
}

// Domain synonym expansions, tuned to the vocabulary of the corpus
var defaultSynonyms = map[string][]string{
	"anger":      {"wrath", "rage", "temper", "fury", "irritation"},
	"angry":      {"anger", "wrath", "rage"},
	"death":      {"mortality", "dying", "perish", "mortal"},
	"die":        {"death", "mortality", "perish"},
	"fear":       {"afraid", "dread", "anxiety", "terror"},
	"anxiety":    {"fear", "worry", "dread", "troubled"},
	"grief":      {"sorrow", "mourning", "loss", "lament"},
	"happiness":  {"joy", "content", "tranquility", "flourishing"},
	"happy":      {"happiness", "joy", "content"},
	"virtue":     {"excellence", "character", "goodness", "wisdom"},
	"wisdom":     {"wise", "prudence", "understanding", "philosophy"},
	"wealth":     {"riches", "money", "fortune", "possessions"},
	"poverty":    {"poor", "want", "need"},
	"fate":       {"destiny", "providence", "fortune", "necessity"},
	"nature":     {"universe", "cosmos", "natural"},
	"pain":       {"suffering", "hardship", "distress", "affliction"},
	"suffering":  {"pain", "hardship", "adversity"},
	"pleasure":   {"delight", "enjoyment", "desire"},
	"desire":     {"want", "craving", "appetite", "longing"},
	"friendship": {"friend", "companion", "fellowship"},
	"time":       {"present", "moment", "fleeting", "brevity"},
	"mind":       {"soul", "reason", "intellect", "judgment"},
	"judgment":   {"opinion", "impression", "assent"},
	"duty":       {"obligation", "task", "office"},
	"adversity":  {"misfortune", "hardship", "trial", "obstacle"},
	"praise":     {"fame", "glory", "reputation", "honor"},
	"solitude":   {"retreat", "alone", "quiet"},
	"change":     {"flux", "transformation", "impermanence"},
}
