package sizing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

func rankedInst(ticker string, class domain.AssetClass, composite float64, themes ...string) domain.RankedInstrument {
	return domain.RankedInstrument{
		EnrichedInstrument: domain.EnrichedInstrument{
			CandidateInstrument: domain.CandidateInstrument{
				Ticker:     ticker,
				Name:       ticker,
				AssetClass: class,
				SubThemes:  themes,
				Source:     "theme-map",
			},
			Price: 100,
		},
		Scores: domain.ScoreSet{Composite: composite},
	}
}

func emptyPortfolio() domain.Portfolio {
	return domain.Portfolio{LiquidCash: 50000, TotalEstimate: 50000}
}

func TestSize_SumNeverExceedsBudget(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	var ranked []domain.RankedInstrument
	for i := 0; i < 12; i++ {
		ranked = append(ranked, rankedInst(fmt.Sprintf("T%02d", i), domain.AssetStock, float64(90-i), fmt.Sprintf("theme-%d", i)))
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "strong conviction thesis")
	require.NotEmpty(t, recs)

	var total float64
	for _, r := range recs {
		total += r.AllocationUSD
	}
	assert.LessOrEqual(t, total, 10000.0*1.001)
}

func TestSize_ConcentrationCap(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("AAA", domain.AssetStock, 95, "t1"),
		rankedInst("BBB", domain.AssetStock, 20, "t2"),
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "thesis")
	for _, r := range recs {
		assert.LessOrEqual(t, r.AllocationUSD, 0.25*10000+1, "%s exceeds concentration cap", r.Ticker)
	}
}

func TestSize_ScoreOrderingScenario(t *testing.T) {
	// budget $10k, two stocks at 90 and 60, no existing exposure: the 90
	// must get strictly more and neither may exceed $2,500
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("HI", domain.AssetStock, 90, "t1"),
		rankedInst("LO", domain.AssetStock, 60, "t2"),
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "strong conviction thesis")
	require.Len(t, recs, 2)

	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}
	assert.Greater(t, byTicker["HI"].AllocationUSD, byTicker["LO"].AllocationUSD)
	assert.LessOrEqual(t, byTicker["HI"].AllocationUSD, 2500.0)
	assert.LessOrEqual(t, byTicker["LO"].AllocationUSD, 2500.0)

	// only the position that drove the scaling reports the cap
	assert.Contains(t, byTicker["HI"].Rationale, "capped at concentration limit")
	assert.NotContains(t, byTicker["LO"].Rationale, "capped at concentration limit")
}

func TestSize_SecondariesAlwaysZero(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("NVDA", domain.AssetStock, 80, "ai-infrastructure"),
		rankedInst("ANTHROPIC.PVT", domain.AssetSecondary, 85, "ai-infrastructure"),
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "thesis")
	for _, r := range recs {
		if r.AssetClass == domain.AssetSecondary {
			assert.Equal(t, 0.0, r.AllocationUSD)
			assert.Contains(t, r.Rationale, "not sized")
		}
	}
}

func TestSize_Deterministic(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("NVDA", domain.AssetStock, 82, "ai-infrastructure"),
		rankedInst("VRT", domain.AssetStock, 74, "ai-infrastructure"),
		rankedInst("BTC", domain.AssetCrypto, 70, "crypto-adoption"),
		rankedInst("SMH", domain.AssetETF, 68, "semiconductors"),
	}
	portfolio := domain.Portfolio{
		Positions:     map[string]domain.Position{"NVDA": {USD: 1200}},
		LiquidCash:    20000,
		TotalEstimate: 40000,
	}

	first, _ := sizer.Size(ranked, portfolio, 8000, "ai buildout")
	for i := 0; i < 5; i++ {
		again, _ := sizer.Size(ranked, portfolio, 8000, "ai buildout")
		assert.Equal(t, first, again, "sizing must be byte-identical across runs")
	}
}

func TestSize_DirectOverlapDampening(t *testing.T) {
	// X is 25% of a $20k portfolio; its allocation must be ~30% of the
	// unadjusted proportional share
	cfg := DefaultConfig()
	sizer := NewSizer(cfg)
	ranked := []domain.RankedInstrument{
		rankedInst("X", domain.AssetStock, 80, "t1"),
		rankedInst("Y", domain.AssetStock, 80, "t2"),
	}
	portfolio := domain.Portfolio{
		Positions:     map[string]domain.Position{"X": {USD: 5000}},
		LiquidCash:    8000,
		TotalEstimate: 20000,
	}

	recs, _ := sizer.Size(ranked, portfolio, 4000, "strong conviction thesis")
	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}

	unadjusted := byTicker["Y"].AllocationUSD // same composite, no overlap
	require.Greater(t, unadjusted, 0.0)
	x := byTicker["X"]
	assert.Less(t, x.AllocationUSD, unadjusted, "overlapped holding must be strictly below its proportional share")
	assert.InDelta(t, 0.30*unadjusted, x.AllocationUSD, unadjusted*0.02)
	assert.Equal(t, 5000.0, x.ExistingExposure)
}

func TestSize_ModerateOverlapCutsTo60Pct(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("X", domain.AssetStock, 80, "t1"),
		rankedInst("Y", domain.AssetStock, 80, "t2"),
	}
	// X is 7% of total: above the 5% tier, below the 10% one
	portfolio := domain.Portfolio{
		Positions:     map[string]domain.Position{"X": {USD: 1400}},
		LiquidCash:    8000,
		TotalEstimate: 20000,
	}

	recs, _ := sizer.Size(ranked, portfolio, 4000, "strong conviction thesis")
	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}
	assert.InDelta(t, 0.60*byTicker["Y"].AllocationUSD, byTicker["X"].AllocationUSD, byTicker["Y"].AllocationUSD*0.02)
}

func TestSize_CorrelatedCryptoDampening(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("SOL", domain.AssetCrypto, 80, "crypto-adoption"),
		rankedInst("NVDA", domain.AssetStock, 80, "ai-infrastructure"),
	}
	// BTC+ETH are 35% of the portfolio: correlated with SOL via theme tags
	portfolio := domain.Portfolio{
		Positions: map[string]domain.Position{
			"BTC": {USD: 4000, Chain: "bitcoin"},
			"ETH": {USD: 3000, Chain: "ethereum"},
		},
		LiquidCash:    9000,
		TotalEstimate: 20000,
	}

	recs, _ := sizer.Size(ranked, portfolio, 4000, "strong conviction thesis")
	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}
	sol := byTicker["SOL"]
	assert.Equal(t, 7000.0, sol.ExistingExposure)
	if sol.AllocationUSD > 0 {
		assert.InDelta(t, 0.15*byTicker["NVDA"].AllocationUSD, sol.AllocationUSD, byTicker["NVDA"].AllocationUSD*0.02)
	}
}

func TestSize_MaxEightPositions(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	var ranked []domain.RankedInstrument
	for i := 0; i < 20; i++ {
		class := domain.AssetStock
		if i%3 == 0 {
			class = domain.AssetETF
		}
		ranked = append(ranked, rankedInst(fmt.Sprintf("T%02d", i), class, float64(95-i), fmt.Sprintf("theme-%d", i)))
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 50000, "strong conviction thesis")
	assert.LessOrEqual(t, len(recs), 8)
}

func TestSize_FloorZeroesOutDust(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	ranked := []domain.RankedInstrument{
		rankedInst("BIG", domain.AssetStock, 95, "t1"),
		rankedInst("DUST", domain.AssetStock, 1, "t2"),
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "strong conviction thesis")
	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}
	assert.Equal(t, 0.0, byTicker["DUST"].AllocationUSD, "allocations under the scaled minimum are zeroed")
}

func TestResolveBudget(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name      string
		portfolio domain.Portfolio
		explicit  float64
		want      float64
	}{
		{
			name:     "explicit budget wins",
			explicit: 7500,
			portfolio: domain.Portfolio{
				LiquidCash: 100, TotalEstimate: 100,
			},
			want: 7500,
		},
		{
			name: "derived from liquid cash minus floor",
			portfolio: domain.Portfolio{
				LiquidCash: 5500, TotalEstimate: 100000,
			},
			want: 5000,
		},
		{
			name: "capped at fraction of total estimate",
			portfolio: domain.Portfolio{
				LiquidCash: 30000, TotalEstimate: 40000,
			},
			want: 8000,
		},
		{
			name: "fallback to half cash under ceiling",
			portfolio: domain.Portfolio{
				LiquidCash: 600, TotalEstimate: 600,
			},
			want: 300,
		},
		{
			name: "fallback ceiling binds",
			portfolio: domain.Portfolio{
				// derived is capped at 20% of total (200, below viable) but
				// half of cash would be 5000, so the ceiling applies
				LiquidCash: 10000, TotalEstimate: 1000,
			},
			want: 2000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBudget(cfg, tt.portfolio, tt.explicit)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestSelect_OnePerThemeFirstPass(t *testing.T) {
	cfg := DefaultConfig()
	ranked := []domain.RankedInstrument{
		rankedInst("A1", domain.AssetStock, 90, "ai-infrastructure"),
		rankedInst("A2", domain.AssetStock, 88, "ai-infrastructure"),
		rankedInst("A3", domain.AssetStock, 86, "ai-infrastructure"),
		rankedInst("B1", domain.AssetStock, 70, "defense"),
		rankedInst("C1", domain.AssetStock, 65, "housing"),
	}

	picked := selectInstruments(cfg, ranked, "strong conviction thesis", 50000)

	var tickers []string
	for _, p := range picked {
		tickers = append(tickers, p.Ticker)
	}
	assert.Contains(t, tickers, "A1")
	assert.Contains(t, tickers, "B1", "theme diversity beats raw score in the first pass")
	assert.Contains(t, tickers, "C1")
}

func TestSelect_LowConvictionWidensETFs(t *testing.T) {
	cfg := DefaultConfig()
	var ranked []domain.RankedInstrument
	for i := 0; i < 6; i++ {
		ranked = append(ranked, rankedInst(fmt.Sprintf("S%d", i), domain.AssetStock, float64(90-i), fmt.Sprintf("t%d", i)))
	}
	for i := 0; i < 4; i++ {
		ranked = append(ranked, rankedInst(fmt.Sprintf("E%d", i), domain.AssetETF, float64(70-i), fmt.Sprintf("t%d", i)))
	}

	confident := selectInstruments(cfg, ranked, "this is certain", 50000)
	hedged := selectInstruments(cfg, ranked, "maybe this works, not sure", 50000)

	count := func(picked []domain.RankedInstrument, class domain.AssetClass) int {
		n := 0
		for _, p := range picked {
			if p.AssetClass == class {
				n++
			}
		}
		return n
	}
	assert.Greater(t, count(hedged, domain.AssetETF), count(confident, domain.AssetETF)-1)
	assert.Less(t, count(hedged, domain.AssetStock), count(confident, domain.AssetStock))
}

func TestSelect_CryptoDominantPoolShiftsSlots(t *testing.T) {
	cfg := DefaultConfig()
	var ranked []domain.RankedInstrument
	for i := 0; i < 6; i++ {
		ranked = append(ranked, rankedInst(fmt.Sprintf("C%d", i), domain.AssetCrypto, float64(90-i), "crypto-adoption"))
	}
	ranked = append(ranked, rankedInst("S1", domain.AssetStock, 85, "t1"))

	picked := selectInstruments(cfg, ranked, "strong conviction thesis", 50000)
	cryptoCount := 0
	for _, p := range picked {
		if p.AssetClass == domain.AssetCrypto {
			cryptoCount++
		}
	}
	assert.GreaterOrEqual(t, cryptoCount, 3, "crypto-dominant pools earn extra crypto slots")
}

func TestSelect_ShortSlotsProportional(t *testing.T) {
	cfg := DefaultConfig()
	var ranked []domain.RankedInstrument
	for i := 0; i < 4; i++ {
		ranked = append(ranked, rankedInst(fmt.Sprintf("L%d", i), domain.AssetStock, float64(80-i), fmt.Sprintf("t%d", i)))
	}
	short := rankedInst("RHI", domain.AssetStock, 60, "staffing")
	short.ShortHint = true
	ranked = append(ranked, short)

	picked := selectInstruments(cfg, ranked, "strong conviction thesis", 50000)
	var hasShort bool
	for _, p := range picked {
		if p.ShortHint {
			hasShort = true
		}
	}
	assert.True(t, hasShort, "a material short presence earns at least one slot")
}

func TestSize_ShortDirectionOnOutput(t *testing.T) {
	sizer := NewSizer(DefaultConfig())
	short := rankedInst("RHI", domain.AssetStock, 75, "staffing")
	short.ShortHint = true
	ranked := []domain.RankedInstrument{
		rankedInst("BOTZ", domain.AssetETF, 80, "automation-labor"),
		short,
	}

	recs, _ := sizer.Size(ranked, emptyPortfolio(), 10000, "strong conviction thesis")
	byTicker := map[string]domain.SizedRecommendation{}
	for _, r := range recs {
		byTicker[r.Ticker] = r
	}
	assert.Equal(t, domain.DirectionShort, byTicker["RHI"].Direction)
	assert.Equal(t, domain.DirectionLong, byTicker["BOTZ"].Direction)
}
