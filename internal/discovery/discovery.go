package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// Suggestion is a structured instrument idea from the thesis-decomposition
// collaborator.
type Suggestion struct {
	Ticker     string
	Name       string
	AssetClass domain.AssetClass
	Rationale  string
}

// Decomposer is the LLM collaborator boundary. On failure or malformed
// output the keyword-only layers carry the run.
type Decomposer interface {
	Decompose(ctx context.Context, thesis string) ([]Suggestion, error)
}

// Discoverer turns thesis text into a deduplicated candidate set. Layers run
// in priority order; each adds tickers not already seen; the first layer to
// emit a ticker wins its classification.
type Discoverer struct {
	searcher   Searcher
	decomposer Decomposer
}

// NewDiscoverer builds a discoverer. Both collaborators are optional: a nil
// searcher or decomposer degrades its layer to zero candidates.
func NewDiscoverer(searcher Searcher, decomposer Decomposer) *Discoverer {
	return &Discoverer{searcher: searcher, decomposer: decomposer}
}

// minViableCandidates: below this count with no theme match, the run is
// flagged so downstream consumers know to widen the search.
const minViableCandidates = 3

// Discover runs all layers and merges their output. It has no side effects
// visible to callers beyond provider caches, and never aborts on a failing
// source.
func (d *Discoverer) Discover(ctx context.Context, thesis string) ([]domain.CandidateInstrument, []domain.Gap) {
	merger := newMerger()
	var gaps []domain.Gap

	// layer 1: explicit mentions in the thesis text
	merger.add(extractMentions(thesis)...)

	// LLM decomposition seeds structured suggestions next; its failure is a
	// gap, not an abort.
	if d.decomposer != nil {
		suggestions, err := d.decomposer.Decompose(ctx, thesis)
		if err != nil {
			gaps = append(gaps, domain.Gap{
				Kind:   domain.GapDiscovery,
				Stage:  "discovery",
				Source: "llm-decompose",
				Detail: err.Error(),
			})
			log.Warn().Err(err).Msg("Thesis decomposition unavailable, continuing keyword-only")
		}
		for _, s := range suggestions {
			ticker := domain.NormalizeTicker(s.Ticker)
			if ticker == "" || IsDenylisted(ticker) {
				continue
			}
			merger.add(domain.CandidateInstrument{
				Ticker:     ticker,
				Name:       s.Name,
				AssetClass: s.AssetClass,
				Source:     "llm-decompose",
			})
		}
	}

	// layer 2: known-name aliases
	merger.add(MatchAliases(thesis)...)

	// layers 4+5 resolve themes; resolved before layer 3 because search
	// queries reuse them, candidates still merge in layer order below
	directThemes := MatchThemes(thesis)
	themes := ExpandCausalThemes(thesis, directThemes)

	// layer 3: live search
	searchCandidates, searchGaps := searchTickers(ctx, d.searcher, BuildQueries(thesis, themes))
	gaps = append(gaps, searchGaps...)
	merger.add(searchCandidates...)

	// layer 4+5: static theme map plus causal expansion
	if len(themes) == 0 {
		gaps = append(gaps, domain.Gap{
			Kind:   domain.GapDiscovery,
			Stage:  "discovery",
			Source: "theme-map",
			Detail: "no theme matched the thesis",
		})
	}
	merger.add(ThemeCandidates(themes)...)

	// layer 6: secondary/private registry
	merger.add(MatchSecondaries(thesis, ThemeSecondaryKeys(themes))...)

	candidates := merger.result()

	if len(candidates) < minViableCandidates && len(themes) == 0 {
		gaps = append(gaps, domain.Gap{
			Kind:   domain.GapDiscovery,
			Stage:  "discovery",
			Detail: fmt.Sprintf("thin signal: %d candidates and no theme match, downstream should widen search", len(candidates)),
		})
	}

	log.Info().
		Int("candidates", len(candidates)).
		Strs("themes", themes).
		Int("gaps", len(gaps)).
		Msg("Discovery complete")

	return candidates, gaps
}

// extractMentions is layer 1: cashtags and parenthetical ticker forms typed
// directly into the thesis. Tickers the static tables know as crypto
// classify as crypto; everything else defaults to stock.
func extractMentions(thesis string) []domain.CandidateInstrument {
	seen := make(map[string]bool)
	var out []domain.CandidateInstrument
	add := func(tickers []string) {
		for _, tk := range tickers {
			if seen[tk] {
				continue
			}
			seen[tk] = true
			class := domain.AssetStock
			if KnownCryptoTicker(tk) {
				class = domain.AssetCrypto
			}
			out = append(out, domain.CandidateInstrument{
				Ticker:     tk,
				Name:       tk,
				AssetClass: class,
				Source:     "thesis-mention",
			})
		}
	}
	add(ExtractCashtags(thesis))
	add(ExtractParentheticals(thesis))
	return out
}

// merger deduplicates candidates by ticker across layers. The first writer
// wins classification and source; later layers only contribute unseen
// sub-themes, preserving theme order.
type merger struct {
	order []string
	byTk  map[string]*domain.CandidateInstrument
}

func newMerger() *merger {
	return &merger{byTk: make(map[string]*domain.CandidateInstrument)}
}

func (m *merger) add(candidates ...domain.CandidateInstrument) {
	for _, c := range candidates {
		c.Ticker = domain.NormalizeTicker(c.Ticker)
		if c.Ticker == "" {
			continue
		}
		existing, ok := m.byTk[c.Ticker]
		if !ok {
			cc := c
			m.byTk[c.Ticker] = &cc
			m.order = append(m.order, c.Ticker)
			continue
		}
		for _, theme := range c.SubThemes {
			if !existing.HasTheme(theme) {
				existing.SubThemes = append(existing.SubThemes, theme)
			}
		}
	}
}

func (m *merger) result() []domain.CandidateInstrument {
	out := make([]domain.CandidateInstrument, 0, len(m.order))
	for _, tk := range m.order {
		out = append(out, *m.byTk[tk])
	}
	return out
}

func sortCandidates(candidates []domain.CandidateInstrument) {
	sort.Slice(candidates, func(i, j int) bool {
		return strings.Compare(candidates[i].Ticker, candidates[j].Ticker) < 0
	})
}
