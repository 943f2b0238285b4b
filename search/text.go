package search

import "strings"

// NormalizeQuery lowercases the raw query, collapses non-alphanumeric runs
// to single spaces, and derives the deduplicated core token list. Tokens
// shorter than the configured minimum or present in the stopword table are
// dropped; token order is first-occurrence order, capped at MaxCoreTokens.
func (c *Config) NormalizeQuery(raw string) (normalized string, coreTokens []string) {
	if len(raw) > c.MaxQueryLength {
		raw = raw[:c.MaxQueryLength]
	}

	var b strings.Builder
	b.Grow(len(raw))
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	normalized = strings.TrimSpace(b.String())

	seen := make(map[string]bool)
	for _, token := range strings.Fields(normalized) {
		if len(token) < c.MinTokenLength || c.Stopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		coreTokens = append(coreTokens, token)
		if len(coreTokens) >= c.MaxCoreTokens {
			break
		}
	}

	return normalized, coreTokens
}

// ExpandTokens maps core tokens through the synonym table and returns the
// union of expansions not already present among the core tokens.
func (c *Config) ExpandTokens(coreTokens []string) []string {
	if len(coreTokens) == 0 {
		return nil
	}

	present := make(map[string]bool, len(coreTokens))
	for _, token := range coreTokens {
		present[token] = true
	}

	var expanded []string
	for _, token := range coreTokens {
		for _, synonym := range c.Synonyms[token] {
			if present[synonym] {
				continue
			}
			present[synonym] = true
			expanded = append(expanded, synonym)
		}
	}

	return expanded
}
