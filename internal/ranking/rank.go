package ranking

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/discovery"
	"github.com/convictionlabs/thesisrun/internal/domain"
)

// Rank scores every enriched instrument and orders them by descending
// composite. Pure: identical inputs always produce identical output. Ties
// break on ascending ticker so ranking never depends on incidental input
// order.
func Rank(enriched []domain.EnrichedInstrument, thesis string) []domain.RankedInstrument {
	thesisThemes := discovery.ExpandCausalThemes(thesis, discovery.MatchThemes(thesis))

	ranked := make([]domain.RankedInstrument, 0, len(enriched))
	for _, inst := range enriched {
		ranked = append(ranked, domain.RankedInstrument{
			EnrichedInstrument: inst,
			Scores:             scoreInstrument(inst, thesisThemes),
		})
	}

	applyDirectionHints(thesis, ranked)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Scores.Composite != ranked[j].Scores.Composite {
			return ranked[i].Scores.Composite > ranked[j].Scores.Composite
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		log.Debug().
			Str("top", ranked[0].Ticker).
			Float64("composite", ranked[0].Scores.Composite).
			Int("total", len(ranked)).
			Msg("Ranking complete")
	}

	return ranked
}
