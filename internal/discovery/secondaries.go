package discovery

import (
	"sort"
	"strings"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// secondaryEntry describes one illiquid pre-listing company in the curated
// registry. These surface as awareness-only opportunities and are never
// sized.
type secondaryEntry struct {
	Ticker   string // internal pseudo-ticker, not exchange-listed
	Name     string
	Keywords []string
	Theme    string
}

var secondariesRegistry = map[string]secondaryEntry{
	"spacex": {
		Ticker:   "SPACEX.PVT",
		Name:     "SpaceX",
		Keywords: []string{"spacex", "starlink", "starship", "space launch"},
		Theme:    "space-economy",
	},
	"anthropic": {
		Ticker:   "ANTHROPIC.PVT",
		Name:     "Anthropic",
		Keywords: []string{"anthropic", "claude", "frontier model", "frontier lab"},
		Theme:    "ai-infrastructure",
	},
	"openai": {
		Ticker:   "OPENAI.PVT",
		Name:     "OpenAI",
		Keywords: []string{"openai", "chatgpt", "frontier model", "frontier lab"},
		Theme:    "ai-infrastructure",
	},
	"anduril": {
		Ticker:   "ANDURIL.PVT",
		Name:     "Anduril Industries",
		Keywords: []string{"anduril", "defense tech", "autonomous weapons", "lattice"},
		Theme:    "defense",
	},
	"stripe": {
		Ticker:   "STRIPE.PVT",
		Name:     "Stripe",
		Keywords: []string{"stripe", "payments infrastructure", "internet commerce"},
		Theme:    "payments-fintech",
	},
	"databricks": {
		Ticker:   "DATABRICKS.PVT",
		Name:     "Databricks",
		Keywords: []string{"databricks", "data lakehouse", "enterprise ai data"},
		Theme:    "cloud-software",
	},
	"figure": {
		Ticker:   "FIGURE.PVT",
		Name:     "Figure AI",
		Keywords: []string{"figure ai", "humanoid robot", "humanoid robots"},
		Theme:    "automation-labor",
	},
}

// MatchSecondaries returns registry entries whose keywords appear in the
// thesis, plus entries reachable from the already-matched themes.
func MatchSecondaries(thesis string, themeKeys []string) []domain.CandidateInstrument {
	lower := strings.ToLower(thesis)
	picked := make(map[string]secondaryEntry)

	for key, entry := range secondariesRegistry {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				picked[key] = entry
				break
			}
		}
	}
	for _, key := range themeKeys {
		if entry, ok := secondariesRegistry[key]; ok {
			picked[key] = entry
		}
	}

	keys := make([]string, 0, len(picked))
	for k := range picked {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.CandidateInstrument, 0, len(keys))
	for _, k := range keys {
		entry := picked[k]
		out = append(out, domain.CandidateInstrument{
			Ticker:     entry.Ticker,
			Name:       entry.Name,
			AssetClass: domain.AssetSecondary,
			SubThemes:  []string{entry.Theme},
			Source:     "secondary-registry",
		})
	}
	return out
}
