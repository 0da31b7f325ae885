package sizing

import "github.com/convictionlabs/thesisrun/internal/domain"

// cryptoThemeTags is the small known-position table behind the crypto
// correlation heuristic: holdings tagged with the same theme as a candidate
// count as correlated exposure even when the tickers differ.
var cryptoThemeTags = map[string]string{
	"BTC":  "crypto-adoption",
	"WBTC": "crypto-adoption",
	"ETH":  "crypto-adoption",
	"SOL":  "crypto-adoption",
	"LINK": "crypto-adoption",
	"DOGE": "crypto-adoption",
	"TAO":  "ai-infrastructure",
	"RNDR": "ai-infrastructure",
}

// exposure describes what the portfolio already holds against one candidate.
type exposure struct {
	direct     float64 // exact-ticker holdings in USD
	correlated float64 // theme-correlated holdings in USD, crypto only
	cryptoFlag bool    // existing crypto exceeds half the portfolio
}

func (e exposure) total() float64 {
	return e.direct + e.correlated
}

// computeExposure measures direct and correlated overlap between a candidate
// and the portfolio snapshot.
func computeExposure(inst domain.RankedInstrument, portfolio domain.Portfolio) exposure {
	e := exposure{direct: portfolio.Holding(inst.Ticker)}

	if inst.AssetClass != domain.AssetCrypto {
		return e
	}

	instTheme := cryptoThemeTags[inst.Ticker]
	if instTheme == "" {
		instTheme = inst.PrimaryTheme()
	}

	var cryptoTotal float64
	for ticker, pos := range portfolio.Positions {
		isCrypto := pos.Chain != ""
		theme, known := cryptoThemeTags[ticker]
		if known {
			isCrypto = true
		}
		if !isCrypto {
			continue
		}
		cryptoTotal += pos.USD
		if ticker == inst.Ticker {
			continue // already counted as direct
		}
		if known && instTheme != "" && theme == instTheme {
			e.correlated += pos.USD
		}
	}

	if portfolio.TotalEstimate > 0 && cryptoTotal > portfolio.TotalEstimate/2 {
		e.cryptoFlag = true
	}
	return e
}

// dampenFactor converts overlap into an allocation multiplier. Direct
// overlap dominates; correlated overlap applies only when there is no
// meaningful direct position.
func dampenFactor(e exposure, portfolio domain.Portfolio) float64 {
	total := portfolio.TotalEstimate
	if total <= 0 {
		return 1.0
	}

	directShare := e.direct / total
	switch {
	case directShare > 0.10:
		return 0.30
	case directShare > 0.05:
		return 0.60
	}

	correlatedShare := e.correlated / total
	switch {
	case correlatedShare > 0.30:
		return 0.15
	case correlatedShare > 0.15:
		return 0.40
	}

	if e.cryptoFlag {
		return 0.60
	}
	return 1.0
}
