package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convictionlabs/thesisrun/internal/domain"
	"github.com/convictionlabs/thesisrun/internal/providers"
)

type fakeSearcher struct {
	hits map[string][]providers.SearchHit
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]providers.SearchHit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[query], nil
}

type fakeDecomposer struct {
	suggestions []Suggestion
	err         error
}

func (f *fakeDecomposer) Decompose(context.Context, string) ([]Suggestion, error) {
	return f.suggestions, f.err
}

func TestDiscover_FirstWriterWinsClassification(t *testing.T) {
	// NVO arrives first as a cashtag (classified stock); the theme map would
	// re-derive it later but must not reclassify or re-source it.
	d := NewDiscoverer(nil, nil)
	cands, _ := d.Discover(context.Background(), "$NVO is cheap given glp-1 obesity demand")

	var nvo *domain.CandidateInstrument
	for i := range cands {
		if cands[i].Ticker == "NVO" {
			nvo = &cands[i]
		}
	}
	require.NotNil(t, nvo)
	assert.Equal(t, "thesis-mention", nvo.Source)
	assert.Equal(t, domain.AssetStock, nvo.AssetClass)
	assert.Contains(t, nvo.SubThemes, "obesity-drugs", "later layers still contribute themes")
}

func TestDiscover_CashtagCryptoClassification(t *testing.T) {
	// $BTC must classify as crypto so enrichment routes it through the batch
	// price path instead of quote-fetching and dropping it.
	d := NewDiscoverer(nil, nil)
	cands, _ := d.Discover(context.Background(), "$BTC and $NVDA both benefit from monetary debasement")

	classes := map[string]domain.AssetClass{}
	for _, c := range cands {
		classes[c.Ticker] = c.AssetClass
	}
	assert.Equal(t, domain.AssetCrypto, classes["BTC"])
	assert.Equal(t, domain.AssetStock, classes["NVDA"])
}

func TestDiscover_TickerUniqueness(t *testing.T) {
	d := NewDiscoverer(nil, nil)
	cands, _ := d.Discover(context.Background(), "gpu datacenter buildout plus $NVDA exposure")

	seen := map[string]int{}
	for _, c := range cands {
		seen[c.Ticker]++
	}
	for tk, n := range seen {
		assert.Equal(t, 1, n, "ticker %s appears %d times", tk, n)
	}
}

func TestDiscover_SearchFrequencyRanking(t *testing.T) {
	thesis := "grid buildout"
	queries := BuildQueries(thesis, MatchThemes(thesis))
	require.NotEmpty(t, queries)

	hits := make(map[string][]providers.SearchHit)
	for _, q := range queries {
		hits[q] = []providers.SearchHit{{Title: "Grid plays", Snippet: "ETN (NYSE: ETN) and VRT lead; VRT raised guidance"}}
	}
	d := NewDiscoverer(&fakeSearcher{hits: hits}, nil)

	cands, _ := d.Discover(context.Background(), thesis)
	var vrt domain.CandidateInstrument
	for _, c := range cands {
		if c.Ticker == "VRT" {
			vrt = c
		}
	}
	require.NotEmpty(t, vrt.Ticker)
	assert.Contains(t, vrt.Source, "web-search(")
}

func TestDiscover_FailingSearchDegradesToGap(t *testing.T) {
	d := NewDiscoverer(&fakeSearcher{err: errors.New("upstream 503")}, nil)
	cands, gaps := d.Discover(context.Background(), "semiconductor capex supercycle")

	assert.NotEmpty(t, cands, "theme layer still produces candidates")
	var found bool
	for _, g := range gaps {
		if g.Source == "web-search" {
			found = true
		}
	}
	assert.True(t, found, "failed search should be recorded as a gap")
}

func TestDiscover_SearchTimeoutRecordedAsSourceTimeout(t *testing.T) {
	d := NewDiscoverer(&fakeSearcher{err: providers.ErrSearchTimeout}, nil)
	_, gaps := d.Discover(context.Background(), "semiconductor capex supercycle")

	var kinds []domain.GapKind
	for _, g := range gaps {
		kinds = append(kinds, g.Kind)
	}
	assert.Contains(t, kinds, domain.GapSourceTimeout)
}

func TestDiscover_ThinSignalGapNotError(t *testing.T) {
	d := NewDiscoverer(nil, nil)
	cands, gaps := d.Discover(context.Background(), "xyzzy frobnicate quux")

	assert.Less(t, len(cands), 3)
	var thin bool
	for _, g := range gaps {
		if g.Kind == domain.GapDiscovery && g.Source == "" {
			thin = true
		}
	}
	assert.True(t, thin, "thin-signal runs record a widening gap")
}

func TestDiscover_DecomposerFailureFallsBack(t *testing.T) {
	d := NewDiscoverer(nil, &fakeDecomposer{err: errors.New("model overloaded")})
	cands, gaps := d.Discover(context.Background(), "glp-1 obesity drugs keep growing")

	assert.NotEmpty(t, cands, "keyword path must carry the run")
	var decomposeGap bool
	for _, g := range gaps {
		if g.Source == "llm-decompose" {
			decomposeGap = true
		}
	}
	assert.True(t, decomposeGap)
}

func TestDiscover_DecomposerSeedsCandidates(t *testing.T) {
	d := NewDiscoverer(nil, &fakeDecomposer{suggestions: []Suggestion{
		{Ticker: "vkTX", Name: "Viking Therapeutics", AssetClass: domain.AssetStock},
		{Ticker: "USDT", Name: "Tether", AssetClass: domain.AssetCrypto}, // denylisted
	}})
	cands, _ := d.Discover(context.Background(), "nothing keyword-matchable here")

	var tickers []string
	for _, c := range cands {
		tickers = append(tickers, c.Ticker)
	}
	assert.Contains(t, tickers, "VKTX", "suggestion tickers are canonicalized")
	assert.NotContains(t, tickers, "USDT", "denylist applies to LLM output too")
}
