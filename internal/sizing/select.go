package sizing

import (
	"regexp"
	"sort"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// hedgingPattern detects low-conviction phrasing; such theses favor
// diversified exposure over concentrated bets.
var hedgingPattern = regexp.MustCompile(`(?i)\b(maybe|probably|possibly|might|could be|not sure|i guess|somewhat|risky bet)\b`)

// smallBudgetThreshold: below this, conviction is treated as low regardless
// of phrasing.
const smallBudgetThreshold = 2500

// slotPlan is the per-class selection quota for one run.
type slotPlan struct {
	stocks    int
	etfs      int
	crypto    int
	secondary int
}

// planSlots adapts the base quotas to signal strength: low conviction trims
// stock/crypto slots and widens ETFs; a crypto-dominant pool shifts slots
// toward crypto.
func planSlots(cfg Config, ranked []domain.RankedInstrument, thesis string, budget float64) slotPlan {
	plan := slotPlan{
		stocks:    cfg.StockSlots,
		etfs:      cfg.ETFSlots,
		crypto:    cfg.CryptoSlots,
		secondary: 1,
	}

	lowConviction := hedgingPattern.MatchString(thesis) || (budget > 0 && budget < smallBudgetThreshold)
	if lowConviction {
		plan.stocks = max(plan.stocks-2, 1)
		plan.crypto = max(plan.crypto-1, 0)
		plan.etfs++
	}

	var cryptoCount int
	for _, r := range ranked {
		if r.AssetClass == domain.AssetCrypto {
			cryptoCount++
		}
	}
	if len(ranked) > 0 && cryptoCount*2 > len(ranked) {
		plan.crypto += 2
		plan.stocks = max(plan.stocks-1, 1)
	}

	return plan
}

// selectInstruments applies the diversity-constrained selection: stocks get
// a one-per-theme first pass, ETFs/crypto fill by raw score, at most one
// secondary, and short candidates get slots proportional to their share of
// the pool. Total is capped at cfg.MaxPositions.
func selectInstruments(cfg Config, ranked []domain.RankedInstrument, thesis string, budget float64) []domain.RankedInstrument {
	plan := planSlots(cfg, ranked, thesis, budget)

	var longs, shorts []domain.RankedInstrument
	for _, r := range ranked {
		if r.ShortHint {
			shorts = append(shorts, r)
		} else {
			longs = append(longs, r)
		}
	}

	// short slots proportional to short dominance in the whole pool
	shortSlots := 0
	if len(ranked) > 0 && len(shorts) > 0 {
		shortSlots = (len(shorts)*cfg.MaxPositions + len(ranked)/2) / len(ranked)
		if shortSlots == 0 {
			shortSlots = 1
		}
	}

	picked := make([]domain.RankedInstrument, 0, cfg.MaxPositions)
	seen := make(map[string]bool)
	add := func(r domain.RankedInstrument) bool {
		if seen[r.Ticker] || len(picked) >= cfg.MaxPositions {
			return false
		}
		seen[r.Ticker] = true
		picked = append(picked, r)
		return true
	}

	// stocks: one per distinct theme first, highest-ranked per theme
	stocksTaken := 0
	themeTaken := make(map[string]bool)
	for _, r := range longs {
		if stocksTaken >= plan.stocks {
			break
		}
		if r.AssetClass != domain.AssetStock {
			continue
		}
		theme := r.PrimaryTheme()
		if theme != "" && themeTaken[theme] {
			continue
		}
		if add(r) {
			themeTaken[theme] = true
			stocksTaken++
		}
	}
	// then fill remaining stock slots by raw score
	for _, r := range longs {
		if stocksTaken >= plan.stocks {
			break
		}
		if r.AssetClass == domain.AssetStock && add(r) {
			stocksTaken++
		}
	}

	takeClass := func(class domain.AssetClass, n int) {
		taken := 0
		for _, r := range longs {
			if taken >= n {
				return
			}
			if r.AssetClass == class && add(r) {
				taken++
			}
		}
	}
	takeClass(domain.AssetETF, plan.etfs)
	takeClass(domain.AssetCrypto, plan.crypto)
	takeClass(domain.AssetSecondary, plan.secondary)

	// reserved short slots, best shorts first
	taken := 0
	for _, r := range shorts {
		if taken >= shortSlots {
			break
		}
		if add(r) {
			taken++
		}
	}

	// fill whatever remains with the highest-scoring unpicked longs
	for _, r := range longs {
		if len(picked) >= cfg.MaxPositions {
			break
		}
		if r.AssetClass == domain.AssetSecondary {
			continue // never more than the one reserved secondary slot
		}
		add(r)
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Scores.Composite != picked[j].Scores.Composite {
			return picked[i].Scores.Composite > picked[j].Scores.Composite
		}
		return picked[i].Ticker < picked[j].Ticker
	})
	return picked
}
