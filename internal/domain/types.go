package domain

import "strings"

// AssetClass categorizes how an instrument trades and therefore which
// enrichment source and sizing rules apply to it.
type AssetClass string

const (
	AssetStock     AssetClass = "stock"
	AssetETF       AssetClass = "etf"
	AssetCrypto    AssetClass = "crypto"
	AssetSecondary AssetClass = "secondary"
	AssetOption    AssetClass = "option"
)

// Direction is the trade side a recommendation expresses.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// CandidateInstrument is a discovery-stage instrument before any market data
// is attached. Ticker is canonical uppercase and unique within a run; the
// first layer that emits a ticker wins its classification.
type CandidateInstrument struct {
	Ticker     string     `json:"ticker"`
	Name       string     `json:"name"`
	AssetClass AssetClass `json:"asset_class"`
	// SubThemes is ordered; the first entry is the primary theme that
	// produced the candidate.
	SubThemes []string `json:"sub_themes,omitempty"`
	// Source records provenance, e.g. "web-search(3x)", "theme-map",
	// "thesis-mention".
	Source string `json:"source"`
}

// PrimaryTheme returns the first sub-theme, or "" when none matched.
func (c CandidateInstrument) PrimaryTheme() string {
	if len(c.SubThemes) == 0 {
		return ""
	}
	return c.SubThemes[0]
}

// HasTheme reports whether theme appears anywhere in SubThemes.
func (c CandidateInstrument) HasTheme(theme string) bool {
	for _, t := range c.SubThemes {
		if t == theme {
			return true
		}
	}
	return false
}

// EnrichedInstrument carries market data for a candidate. A Price of 0 means
// unknown and must be accompanied by a RiskNote; downstream stages never
// treat it as a valid quote.
type EnrichedInstrument struct {
	CandidateInstrument
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap,omitempty"`
	PERatio   float64 `json:"pe_ratio,omitempty"`
	Volume24h float64 `json:"volume_24h,omitempty"`
	Catalyst  string  `json:"catalyst,omitempty"`
	RiskNote  string  `json:"risk_note,omitempty"`
}

// ScoreSet holds the five sub-scores and their weighted composite, each in
// [0,100].
type ScoreSet struct {
	ThesisAlignment   float64 `json:"thesis_alignment"`
	Valuation         float64 `json:"valuation"`
	CatalystProximity float64 `json:"catalyst_proximity"`
	Liquidity         float64 `json:"liquidity"`
	PortfolioFit      float64 `json:"portfolio_fit"`
	Composite         float64 `json:"composite"`
}

// RankedInstrument is an enriched instrument with its score breakdown and
// 1-based position after a descending composite sort.
type RankedInstrument struct {
	EnrichedInstrument
	Scores ScoreSet `json:"scores"`
	Rank   int      `json:"rank"`
	// ShortHint marks instruments that express a bearish leg of the thesis.
	// Sizing converts it into the output Direction.
	ShortHint bool `json:"short_hint,omitempty"`
}

// SizedRecommendation is the pipeline's terminal entity: a ranked instrument
// with a budget-respecting dollar allocation.
type SizedRecommendation struct {
	RankedInstrument
	Direction     Direction `json:"direction"`
	AllocationUSD float64   `json:"allocation_usd"`
	AllocationPct float64   `json:"allocation_pct"`
	Rationale     string    `json:"rationale"`
	// ExistingExposure is USD already held in the same or a correlated
	// instrument at sizing time.
	ExistingExposure float64 `json:"existing_exposure"`
}

// Position is a single holding inside a Portfolio snapshot.
type Position struct {
	USD   float64 `json:"usd"`
	Chain string  `json:"chain,omitempty"`
}

// Portfolio is the read-only holdings snapshot supplied at invocation time.
// The pipeline never mutates it.
type Portfolio struct {
	Positions     map[string]Position `json:"positions"`
	LiquidCash    float64             `json:"liquid_cash"`
	TotalEstimate float64             `json:"total_estimate"`
}

// Holding returns the USD held directly under ticker (exact, case-insensitive
// match on the canonical uppercase form).
func (p Portfolio) Holding(ticker string) float64 {
	if p.Positions == nil {
		return 0
	}
	if pos, ok := p.Positions[strings.ToUpper(ticker)]; ok {
		return pos.USD
	}
	return 0
}

// NormalizeTicker converts a raw symbol to its canonical uppercase form.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
