package ranking

import (
	"regexp"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// directionRule maps replacement/decline language in the thesis to themes
// whose instruments should be treated as short candidates.
type directionRule struct {
	Pattern     *regexp.Regexp
	ShortThemes []string
}

var directionRules = []directionRule{
	{
		// labor displacement hits the staffing sector
		Pattern:     regexp.MustCompile(`(?i)(replace|displace|automate|eliminate)\w*\s+([\w-]+\s+){0,3}(jobs?|workers?|labor|labour|hiring|headcount)`),
		ShortThemes: []string{"staffing"},
	},
	{
		// housing downturn language
		Pattern:     regexp.MustCompile(`(?i)(housing|home\s+prices?|real\s+estate)\s+([\w-]+\s+){0,2}(crash|collapse|decline|bubble)`),
		ShortThemes: []string{"housing"},
	},
	{
		// disintermediation of card rails
		Pattern:     regexp.MustCompile(`(?i)(stablecoins?|crypto)\s+([\w-]+\s+){0,3}(replace|kill|disrupt)\w*\s+([\w-]+\s+){0,2}(payments?|cards?|banks?)`),
		ShortThemes: []string{"payments-fintech"},
	},
}

// bearishIndexPattern detects a bearish view on the broad market, which makes
// index-tracking ETFs short candidates.
var bearishIndexPattern = regexp.MustCompile(`(?i)(bearish|crash|correction|bubble|overvalued|drawdown)\w*\s+([\w-]+\s+){0,3}(index|market|s&p|spx|nasdaq|qqq)|(index|market|s&p|spx|nasdaq)\s+([\w-]+\s+){0,2}(crash|correction|bubble|is\s+overvalued)`)

// inverseLeveragedTickers are instruments that already express a bearish
// view; buying them IS the short, so they are forced long no matter what the
// thesis language implies.
var inverseLeveragedTickers = map[string]bool{
	"SQQQ": true, "SPXU": true, "SPXS": true, "SH": true, "PSQ": true,
	"SDS": true, "QID": true, "SOXS": true, "TZA": true, "RWM": true,
	"DOG": true, "LABD": true,
}

// IsInverseLeveraged reports whether ticker is a known inverse/leveraged-short
// instrument.
func IsInverseLeveraged(ticker string) bool {
	return inverseLeveragedTickers[ticker]
}

// shortThemesFor returns the set of themes the thesis language marks as short
// candidates.
func shortThemesFor(thesis string) map[string]bool {
	out := make(map[string]bool)
	for _, rule := range directionRules {
		if rule.Pattern.MatchString(thesis) {
			for _, theme := range rule.ShortThemes {
				out[theme] = true
			}
		}
	}
	return out
}

// applyDirectionHints sets ShortHint wherever thesis language implies a
// bearish leg, then clears it for inverse-leveraged instruments.
func applyDirectionHints(thesis string, ranked []domain.RankedInstrument) {
	shortThemes := shortThemesFor(thesis)
	bearishIndex := bearishIndexPattern.MatchString(thesis)

	for i := range ranked {
		inst := &ranked[i]
		for theme := range shortThemes {
			if inst.HasTheme(theme) {
				inst.ShortHint = true
			}
		}
		if bearishIndex && inst.AssetClass == domain.AssetETF {
			inst.ShortHint = true
		}
		if IsInverseLeveraged(inst.Ticker) {
			inst.ShortHint = false
		}
	}
}
