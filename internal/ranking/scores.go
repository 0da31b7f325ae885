package ranking

import (
	"math"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// Composite weights. Fixed; alignment dominates because discovery provenance
// is the strongest signal this stage has.
const (
	weightAlignment = 0.4
	weightValuation = 0.2
	weightCatalyst  = 0.2
	weightLiquidity = 0.1
	weightFit       = 0.1
)

// neutralPortfolioFit is a deliberate placeholder: folding real portfolio
// state into ranking would create a circular dependency with the sizing
// stage, which owns portfolio awareness.
const neutralPortfolioFit = 50

// thesisAlignmentScore rewards provenance and theme overlap with the thesis.
func thesisAlignmentScore(inst domain.EnrichedInstrument, thesisThemes []string) float64 {
	score := 40.0

	if len(thesisThemes) > 0 && inst.PrimaryTheme() == thesisThemes[0] {
		score += 30
	}
	if len(inst.SubThemes) > 1 {
		score += 10
	}

	// +10 per secondary-theme match beyond the first thesis theme
	for _, theme := range thesisThemes[min(1, len(thesisThemes)):] {
		if inst.HasTheme(theme) {
			score += 10
		}
	}

	switch inst.Source {
	case "theme-map":
		score += 10 // curated table outranks free-text extraction
	case "secondary-registry":
		score += 15 // non-obvious ideas are rewarded
	}

	return math.Min(score, 100)
}

// valuationScore is a monotonic step function: price-to-earnings for
// equities/ETFs (cheaper is better), market capitalization for crypto and
// secondaries (mid-cap is the sweet spot).
func valuationScore(inst domain.EnrichedInstrument) float64 {
	switch inst.AssetClass {
	case domain.AssetCrypto, domain.AssetSecondary:
		return marketCapScore(inst.MarketCap)
	default:
		return peScore(inst.PERatio)
	}
}

func peScore(pe float64) float64 {
	switch {
	case pe <= 0: // absent or negative earnings
		return 45
	case pe < 10:
		return 90
	case pe < 15:
		return 80
	case pe < 25:
		return 65
	case pe < 40:
		return 50
	case pe < 60:
		return 35
	default:
		return 20
	}
}

func marketCapScore(mcap float64) float64 {
	switch {
	case mcap <= 0: // unknown
		return 40
	case mcap < 10e6: // micro-cap, penalized for risk
		return 25
	case mcap < 100e6:
		return 45
	case mcap < 1e9:
		return 70
	case mcap < 20e9: // mid-cap sweet spot
		return 85
	case mcap < 200e9:
		return 65
	default: // megacap, less upside
		return 45
	}
}

// catalystScore is a coarse placeholder: presence beats absence, timing is an
// external-model concern.
func catalystScore(inst domain.EnrichedInstrument) float64 {
	if inst.Catalyst != "" {
		return 70
	}
	return 50
}

// secondaryLiquidityScore is the fixed floor for instruments with no market.
const secondaryLiquidityScore = 20

// liquidityScore steps on dollar trading volume: volume x price for
// equities, 24h USD volume for crypto.
func liquidityScore(inst domain.EnrichedInstrument) float64 {
	if inst.AssetClass == domain.AssetSecondary {
		return secondaryLiquidityScore
	}
	dollarVolume := inst.Volume24h
	if inst.AssetClass != domain.AssetCrypto {
		dollarVolume = inst.Volume24h * inst.Price
	}
	switch {
	case dollarVolume >= 1e9:
		return 95
	case dollarVolume >= 100e6:
		return 85
	case dollarVolume >= 10e6:
		return 70
	case dollarVolume >= 1e6:
		return 55
	case dollarVolume > 0:
		return 35
	default:
		return 25
	}
}

// scoreInstrument computes the full ScoreSet for one instrument.
func scoreInstrument(inst domain.EnrichedInstrument, thesisThemes []string) domain.ScoreSet {
	s := domain.ScoreSet{
		ThesisAlignment:   thesisAlignmentScore(inst, thesisThemes),
		Valuation:         valuationScore(inst),
		CatalystProximity: catalystScore(inst),
		Liquidity:         liquidityScore(inst),
		PortfolioFit:      neutralPortfolioFit,
	}
	s.Composite = math.Round(
		weightAlignment*s.ThesisAlignment +
			weightValuation*s.Valuation +
			weightCatalyst*s.CatalystProximity +
			weightLiquidity*s.Liquidity +
			weightFit*s.PortfolioFit)
	return s
}
