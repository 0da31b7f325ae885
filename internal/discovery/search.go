package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/domain"
	"github.com/convictionlabs/thesisrun/internal/providers"
)

// Searcher is the live search collaborator. The real implementation enforces
// the provider's rate limit internally; this layer only guarantees queries go
// out sequentially.
type Searcher interface {
	Search(ctx context.Context, query string) ([]providers.SearchHit, error)
}

// searchTickers runs the generated queries sequentially, extracts ticker-like
// tokens from the result text, and ranks them by cross-query frequency.
// A failing query degrades to zero hits; the layer never aborts the run.
func searchTickers(ctx context.Context, searcher Searcher, queries []string) ([]domain.CandidateInstrument, []domain.Gap) {
	if searcher == nil || len(queries) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	var gaps []domain.Gap
	failed := 0
	for _, query := range queries {
		hits, err := searcher.Search(ctx, query)
		if err != nil {
			failed++
			kind := domain.GapDiscovery
			if err == providers.ErrSearchTimeout {
				kind = domain.GapSourceTimeout
			}
			gaps = append(gaps, domain.Gap{
				Kind:   kind,
				Stage:  "discovery",
				Source: "web-search",
				Detail: fmt.Sprintf("query %q: %v", query, err),
			})
			log.Warn().Err(err).Str("query", query).Msg("Search query degraded to zero candidates")
			continue
		}
		seenThisQuery := make(map[string]bool)
		for _, hit := range hits {
			for _, ticker := range ExtractSearchTickers(hit.Title + " " + hit.Snippet) {
				if !seenThisQuery[ticker] {
					seenThisQuery[ticker] = true
					counts[ticker]++
				}
			}
		}
	}

	if failed == len(queries) && len(queries) > 0 {
		return nil, gaps
	}

	type freq struct {
		ticker string
		n      int
	}
	ranked := make([]freq, 0, len(counts))
	for tk, n := range counts {
		ranked = append(ranked, freq{tk, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].ticker < ranked[j].ticker
	})

	out := make([]domain.CandidateInstrument, 0, len(ranked))
	for _, f := range ranked {
		out = append(out, domain.CandidateInstrument{
			Ticker:     f.ticker,
			Name:       f.ticker,
			AssetClass: domain.AssetStock,
			Source:     fmt.Sprintf("web-search(%dx)", f.n),
		})
	}
	return out, gaps
}
