package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/stoa/core"
)

// Citation is an explicit "source book.entry" reference detected in a query.
// Source is empty when the query gave only "book.entry".
type Citation struct {
	Source core.Source
	Book   int
	Entry  string
}

// Total-match pattern: optional source name, then book.entry where the
// entry is digits with an optional single lowercase letter suffix.
var citationPattern = regexp.MustCompile(buildCitationPattern())

func buildCitationPattern() string {
	names := make([]string, 0, len(core.KnownSources()))
	for _, source := range core.KnownSources() {
		names = append(names, regexp.QuoteMeta(string(source)))
	}
	return `^(?:(` + strings.Join(names, "|") + `)\s+)?(\d+)\.(\d+[a-z]?)$`
}

// ParseCitation detects an explicit citation in the raw query. The whole
// trimmed query must be the citation; extra surrounding words do not match.
// Returns nil when the query is not a citation.
func ParseCitation(raw string) *Citation {
	groups := citationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if groups == nil {
		return nil
	}

	book, err := strconv.Atoi(groups[2])
	if err != nil || book <= 0 {
		return nil
	}

	return &Citation{
		Source: core.Source(groups[1]),
		Book:   book,
		Entry:  groups[3],
	}
}

// Matches reports whether an entry key is the citation's target. When the
// citation carries no source, any source with the right book and entry
// matches.
func (c *Citation) Matches(key core.EntryKey) bool {
	if c == nil {
		return false
	}
	if c.Source != "" && c.Source != key.Source {
		return false
	}
	return c.Book == key.Book && c.Entry == key.Entry
}
