package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

func TestMatchThemes_ShortKeywordNeedsWordBoundary(t *testing.T) {
	// "ev" must not fire inside "believe" or "never"
	themes := MatchThemes("I believe this will never work out")
	assert.NotContains(t, themes, "electrification")

	themes = MatchThemes("the EV transition is accelerating")
	assert.Contains(t, themes, "electrification")
}

func TestMatchThemes_MultiWordFractionalOverlap(t *testing.T) {
	// "small modular reactor" should match from "modular reactor designs"
	themes := MatchThemes("modular reactor designs will win utility contracts")
	assert.Contains(t, themes, "nuclear-power")
}

func TestMatchThemes_StrongestFirst(t *testing.T) {
	themes := MatchThemes("gpu datacenter inference demand plus some nuclear upside")
	require.NotEmpty(t, themes)
	assert.Equal(t, "ai-infrastructure", themes[0], "theme with most keyword hits ranks first")
	assert.Contains(t, themes, "nuclear-power")
}

func TestMatchThemes_Deterministic(t *testing.T) {
	thesis := "crypto and defense spending both rise under debasement"
	first := MatchThemes(thesis)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MatchThemes(thesis))
	}
}

func TestThemeCandidates_CarryTheme(t *testing.T) {
	cands := ThemeCandidates([]string{"obesity-drugs"})
	require.NotEmpty(t, cands)
	for _, c := range cands {
		assert.Equal(t, []string{"obesity-drugs"}, c.SubThemes)
		assert.Equal(t, "theme-map", c.Source)
	}
	var tickers []string
	for _, c := range cands {
		tickers = append(tickers, c.Ticker)
	}
	assert.Contains(t, tickers, "NVO")
	assert.Contains(t, tickers, "LLY")
}

func TestExpandCausalThemes_FillsAndCaps(t *testing.T) {
	thesis := "AI agents will replace most office workers, and compute demand keeps growing while electricity prices spike near conflict zones after rate cuts"
	combined := ExpandCausalThemes(thesis, []string{"ai-infrastructure"})

	assert.LessOrEqual(t, len(combined), maxCombinedThemes)
	assert.Equal(t, "ai-infrastructure", combined[0], "direct themes stay ahead of causal ones")
	assert.Contains(t, combined, "automation-labor")
}

func TestExpandCausalThemes_HyphenatedIntermediateWords(t *testing.T) {
	combined := ExpandCausalThemes("AI agents will replace most white-collar jobs within five years", nil)
	assert.Contains(t, combined, "automation-labor")
	assert.Contains(t, combined, "staffing")
}

func TestExpandCausalThemes_NoDuplicates(t *testing.T) {
	combined := ExpandCausalThemes("compute demand explodes", []string{"semiconductors"})
	seen := map[string]int{}
	for _, th := range combined {
		seen[th]++
	}
	for th, n := range seen {
		assert.Equal(t, 1, n, "theme %s duplicated", th)
	}
}

func TestMatchAliases_WordBoundary(t *testing.T) {
	cands := MatchAliases("heavy metal demand is rising")
	for _, c := range cands {
		assert.NotEqual(t, "META", c.Ticker, "'meta' must not fire inside 'metal'")
	}

	cands = MatchAliases("Meta keeps buying GPUs for llama training")
	var tickers []string
	for _, c := range cands {
		tickers = append(tickers, c.Ticker)
	}
	assert.Contains(t, tickers, "META")
}

func TestMatchAliases_BrandToManufacturer(t *testing.T) {
	cands := MatchAliases("Ozempic demand is still underestimated")
	require.Len(t, cands, 1)
	assert.Equal(t, "NVO", cands[0].Ticker)
	assert.Equal(t, domain.AssetStock, cands[0].AssetClass)
	assert.Equal(t, "name-alias", cands[0].Source)
}

func TestMatchSecondaries(t *testing.T) {
	cands := MatchSecondaries("starlink will dominate rural broadband", nil)
	require.Len(t, cands, 1)
	assert.Equal(t, "SPACEX.PVT", cands[0].Ticker)
	assert.Equal(t, domain.AssetSecondary, cands[0].AssetClass)
	assert.Equal(t, "secondary-registry", cands[0].Source)
}

func TestMatchSecondaries_ViaThemeKeys(t *testing.T) {
	cands := MatchSecondaries("nothing explicit here", []string{"anduril"})
	require.Len(t, cands, 1)
	assert.Equal(t, "ANDURIL.PVT", cands[0].Ticker)
}
