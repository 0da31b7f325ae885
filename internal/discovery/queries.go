package discovery

import (
	"fmt"
	"regexp"
	"strings"
)

// fillerPhrases are hedging, hype, and filler fragments stripped from a
// thesis before it becomes search queries. The remainder is the investable
// concept.
var fillerPhrases = []string{
	"i think", "i believe", "i feel like", "in my opinion", "imo",
	"it seems like", "it seems that", "probably", "maybe", "possibly",
	"honestly", "basically", "literally", "obviously", "clearly",
	"to the moon", "going to explode", "can't lose", "no brainer",
	"massively", "hugely", "insanely", "crazy",
	"i'm convinced that", "i am convinced that", "my thesis is that",
	"my thesis is", "hot take:", "hot take",
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanThesis strips filler and hedging phrasing, returning the investable
// concept in lowercase.
func CleanThesis(thesis string) string {
	out := strings.ToLower(thesis)
	for _, phrase := range fillerPhrases {
		out = strings.ReplaceAll(out, phrase, " ")
	}
	out = whitespacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// maxSearchQueries bounds layer-3 search volume per run.
const maxSearchQueries = 4

// BuildQueries derives 2-4 targeted search queries from the thesis. The first
// two always exist; theme-scoped variants fill the remaining slots.
func BuildQueries(thesis string, themes []string) []string {
	concept := CleanThesis(thesis)
	if concept == "" {
		return nil
	}
	// keep queries short: search providers rank long queries poorly
	words := strings.Fields(concept)
	if len(words) > 12 {
		concept = strings.Join(words[:12], " ")
	}

	queries := []string{
		concept + " stocks to buy",
		concept + " public companies tickers",
	}
	for _, theme := range themes {
		if len(queries) >= maxSearchQueries {
			break
		}
		queries = append(queries, fmt.Sprintf("best %s stocks %s", strings.ReplaceAll(theme, "-", " "), "ticker"))
	}
	return queries
}
