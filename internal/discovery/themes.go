package discovery

import (
	"sort"
	"strings"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// themeInstrument is one tradeable entry inside the static theme map.
type themeInstrument struct {
	Ticker string
	Name   string
}

// themeEntry groups the instruments a theme maps to, by asset class.
type themeEntry struct {
	Keywords    []string
	Stocks      []themeInstrument
	ETFs        []themeInstrument
	Crypto      []themeInstrument
	Secondaries []string // keys into the secondaries registry
}

// themeMap is the curated keyword table driving layer 4 of discovery. Theme
// identifiers double as SubTheme values on emitted candidates.
var themeMap = map[string]themeEntry{
	"ai-infrastructure": {
		Keywords: []string{"ai", "artificial intelligence", "llm", "large language model", "gpu", "datacenter", "data center", "inference", "ai capex"},
		Stocks: []themeInstrument{
			{"NVDA", "NVIDIA"}, {"AVGO", "Broadcom"}, {"TSM", "Taiwan Semiconductor"},
			{"VRT", "Vertiv"}, {"SMCI", "Super Micro Computer"},
		},
		ETFs:        []themeInstrument{{"SMH", "VanEck Semiconductor ETF"}, {"BOTZ", "Global X Robotics & AI ETF"}},
		Crypto:      []themeInstrument{{"TAO", "Bittensor"}, {"RNDR", "Render"}},
		Secondaries: []string{"anthropic", "openai"},
	},
	"obesity-drugs": {
		Keywords: []string{"glp-1", "glp1", "obesity", "weight loss drug", "semaglutide", "tirzepatide"},
		Stocks:   []themeInstrument{{"NVO", "Novo Nordisk"}, {"LLY", "Eli Lilly"}, {"VKTX", "Viking Therapeutics"}},
		ETFs:     []themeInstrument{{"XLV", "Health Care Select Sector SPDR"}},
	},
	"semiconductors": {
		Keywords: []string{"semiconductor", "chip", "chips", "fab", "foundry", "lithography"},
		Stocks:   []themeInstrument{{"NVDA", "NVIDIA"}, {"AMD", "Advanced Micro Devices"}, {"ASML", "ASML Holding"}, {"TSM", "Taiwan Semiconductor"}, {"MU", "Micron"}},
		ETFs:     []themeInstrument{{"SMH", "VanEck Semiconductor ETF"}, {"SOXX", "iShares Semiconductor ETF"}},
	},
	"electrification": {
		Keywords: []string{"ev", "electric vehicle", "battery", "charging", "lithium", "grid"},
		Stocks:   []themeInstrument{{"TSLA", "Tesla"}, {"ALB", "Albemarle"}, {"ETN", "Eaton"}, {"GEV", "GE Vernova"}},
		ETFs:     []themeInstrument{{"LIT", "Global X Lithium & Battery ETF"}, {"DRIV", "Global X Autonomous & EV ETF"}},
	},
	"nuclear-power": {
		Keywords: []string{"nuclear", "uranium", "smr", "small modular reactor", "power demand"},
		Stocks:   []themeInstrument{{"CCJ", "Cameco"}, {"CEG", "Constellation Energy"}, {"VST", "Vistra"}, {"OKLO", "Oklo"}},
		ETFs:     []themeInstrument{{"URA", "Global X Uranium ETF"}, {"NLR", "VanEck Uranium+Nuclear ETF"}},
	},
	"defense": {
		Keywords: []string{"defense", "defence", "military", "war", "geopolitical", "drones", "rearmament"},
		Stocks:   []themeInstrument{{"LMT", "Lockheed Martin"}, {"RTX", "RTX"}, {"NOC", "Northrop Grumman"}, {"KTOS", "Kratos"}},
		ETFs:     []themeInstrument{{"ITA", "iShares U.S. Aerospace & Defense ETF"}},
		Secondaries: []string{"anduril"},
	},
	"cybersecurity": {
		Keywords: []string{"cybersecurity", "cyber security", "cyber attack", "ransomware", "zero trust"},
		Stocks:   []themeInstrument{{"CRWD", "CrowdStrike"}, {"PANW", "Palo Alto Networks"}, {"ZS", "Zscaler"}, {"FTNT", "Fortinet"}},
		ETFs:     []themeInstrument{{"HACK", "Amplify Cybersecurity ETF"}},
	},
	"crypto-adoption": {
		Keywords: []string{"crypto", "cryptocurrency", "defi", "stablecoin rails", "tokenization", "onchain", "on-chain", "halving"},
		Stocks:   []themeInstrument{{"COIN", "Coinbase"}, {"MSTR", "MicroStrategy"}, {"HOOD", "Robinhood"}},
		ETFs:     []themeInstrument{{"IBIT", "iShares Bitcoin Trust"}},
		Crypto:   []themeInstrument{{"BTC", "Bitcoin"}, {"ETH", "Ethereum"}, {"SOL", "Solana"}},
	},
	"cloud-software": {
		Keywords: []string{"cloud", "saas", "software spend", "enterprise software"},
		Stocks:   []themeInstrument{{"MSFT", "Microsoft"}, {"AMZN", "Amazon"}, {"GOOGL", "Alphabet"}, {"SNOW", "Snowflake"}, {"DDOG", "Datadog"}},
		ETFs:     []themeInstrument{{"WCLD", "WisdomTree Cloud Computing ETF"}},
		Secondaries: []string{"databricks"},
	},
	"automation-labor": {
		Keywords: []string{"automation", "robotics", "labor shortage", "labor displacement", "workforce", "agentic"},
		Stocks:   []themeInstrument{{"ISRG", "Intuitive Surgical"}, {"ROK", "Rockwell Automation"}, {"TER", "Teradyne"}},
		ETFs:     []themeInstrument{{"BOTZ", "Global X Robotics & AI ETF"}, {"ARKQ", "ARK Autonomous Tech & Robotics ETF"}},
		Secondaries: []string{"figure"},
	},
	"space-economy": {
		Keywords: []string{"space", "satellite", "launch", "orbital", "starlink"},
		Stocks:   []themeInstrument{{"RKLB", "Rocket Lab"}, {"ASTS", "AST SpaceMobile"}, {"IRDM", "Iridium"}},
		ETFs:     []themeInstrument{{"ARKX", "ARK Space Exploration ETF"}},
		Secondaries: []string{"spacex"},
	},
	"payments-fintech": {
		Keywords: []string{"payments", "fintech", "cashless", "bnpl", "digital wallet"},
		Stocks:   []themeInstrument{{"V", "Visa"}, {"MA", "Mastercard"}, {"SQ", "Block"}, {"PYPL", "PayPal"}},
		ETFs:     []themeInstrument{{"FINX", "Global X FinTech ETF"}},
		Secondaries: []string{"stripe"},
	},
	"housing": {
		Keywords: []string{"housing", "homebuilder", "mortgage", "real estate", "rate cut"},
		Stocks:   []themeInstrument{{"DHI", "D.R. Horton"}, {"LEN", "Lennar"}, {"HD", "Home Depot"}},
		ETFs:     []themeInstrument{{"XHB", "SPDR S&P Homebuilders ETF"}, {"ITB", "iShares U.S. Home Construction ETF"}},
	},
	"staffing": {
		Keywords: []string{"staffing", "recruiting", "temp labor", "hiring"},
		Stocks:   []themeInstrument{{"RHI", "Robert Half"}, {"MAN", "ManpowerGroup"}, {"KFRC", "Kforce"}},
	},
}

// shortKeywordLimit: keys at or below this length only match on word
// boundaries, never as substrings, to avoid e.g. "ev" firing inside
// "believe".
const shortKeywordLimit = 4

// multiWordOverlapFraction: a multi-word key matches when at least this
// fraction of its words appear in the thesis.
const multiWordOverlapFraction = 0.6

// knownCryptoTickers aggregates every crypto instrument the alias and theme
// tables know, so explicit mentions like $BTC classify as crypto instead of
// defaulting to stock and failing the equity quote path.
var knownCryptoTickers = func() map[string]bool {
	out := make(map[string]bool)
	for _, entry := range themeMap {
		for _, inst := range entry.Crypto {
			out[inst.Ticker] = true
		}
	}
	for _, alias := range aliasTable {
		if alias.AssetClass == domain.AssetCrypto {
			out[alias.Ticker] = true
		}
	}
	return out
}()

// KnownCryptoTicker reports whether ticker appears as a crypto instrument in
// the static tables.
func KnownCryptoTicker(ticker string) bool {
	return knownCryptoTickers[ticker]
}

// MatchThemes returns theme identifiers whose keywords match the thesis,
// strongest matches first (match count, then lexical order for
// determinism).
func MatchThemes(thesis string) []string {
	lower := strings.ToLower(thesis)
	words := fieldsSet(lower)

	type themeHit struct {
		theme string
		hits  int
	}
	var hits []themeHit
	for theme, entry := range themeMap {
		n := 0
		for _, kw := range entry.Keywords {
			if keywordMatches(lower, words, kw) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, themeHit{theme, n})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].hits != hits[j].hits {
			return hits[i].hits > hits[j].hits
		}
		return hits[i].theme < hits[j].theme
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.theme)
	}
	return out
}

func keywordMatches(lowerThesis string, thesisWords map[string]bool, keyword string) bool {
	if strings.Contains(keyword, " ") {
		if strings.Contains(lowerThesis, keyword) {
			return true
		}
		kwWords := strings.Fields(keyword)
		matched := 0
		for _, w := range kwWords {
			if thesisWords[w] {
				matched++
			}
		}
		return float64(matched) >= multiWordOverlapFraction*float64(len(kwWords))
	}
	if len(keyword) <= shortKeywordLimit {
		return containsWord(lowerThesis, keyword)
	}
	return strings.Contains(lowerThesis, keyword)
}

func fieldsSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-')
	}) {
		set[w] = true
	}
	return set
}

// ThemeCandidates expands matched themes into candidates carrying the theme
// as their sub-theme. Themes are consumed in the given order so the primary
// theme stays first on every candidate it produced.
func ThemeCandidates(themes []string) []domain.CandidateInstrument {
	var out []domain.CandidateInstrument
	for _, theme := range themes {
		entry, ok := themeMap[theme]
		if !ok {
			continue
		}
		emit := func(instruments []themeInstrument, class domain.AssetClass) {
			for _, inst := range instruments {
				out = append(out, domain.CandidateInstrument{
					Ticker:     inst.Ticker,
					Name:       inst.Name,
					AssetClass: class,
					SubThemes:  []string{theme},
					Source:     "theme-map",
				})
			}
		}
		emit(entry.Stocks, domain.AssetStock)
		emit(entry.ETFs, domain.AssetETF)
		emit(entry.Crypto, domain.AssetCrypto)
	}
	return out
}

// ThemeSecondaryKeys returns the secondaries registry keys reachable from the
// given themes.
func ThemeSecondaryKeys(themes []string) []string {
	var out []string
	for _, theme := range themes {
		if entry, ok := themeMap[theme]; ok {
			out = append(out, entry.Secondaries...)
		}
	}
	return out
}
