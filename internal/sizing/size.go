package sizing

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// Sizer allocates a resolved budget across a diversity-constrained subset of
// ranked candidates. Pure and single-threaded: identical inputs produce
// byte-identical allocations.
type Sizer struct {
	cfg Config
}

func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size runs the six sizing steps: budget resolution, selection, proportional
// allocation with concentration caps, overlap dampening, floor/zero-out, and
// budget normalization.
func (s *Sizer) Size(ranked []domain.RankedInstrument, portfolio domain.Portfolio, explicitBudget float64, thesis string) ([]domain.SizedRecommendation, []domain.Gap) {
	var gaps []domain.Gap

	budget := ResolveBudget(s.cfg, portfolio, explicitBudget)
	if budget <= 0 || len(ranked) == 0 {
		return nil, gaps
	}

	selected := selectInstruments(s.cfg, ranked, thesis, budget)
	if len(selected) == 0 {
		return nil, gaps
	}

	var compositeSum float64
	for _, r := range selected {
		compositeSum += r.Scores.Composite
	}
	if compositeSum <= 0 {
		return nil, gaps
	}

	maxPosition := s.cfg.ConcentrationCap * budget
	minPosition := math.Max(s.cfg.MinPositionUSD, s.cfg.MinPositionFraction*budget)

	// step 3: proportional shares under the concentration cap. The whole
	// vector scales down together when the largest share breaches the cap,
	// so relative ordering stays strict instead of flattening every large
	// position onto the cap.
	var largestShare, maxComposite float64
	for _, r := range selected {
		share := r.Scores.Composite / compositeSum * budget
		if share > largestShare {
			largestShare = share
			maxComposite = r.Scores.Composite
		}
	}
	capScale := 1.0
	if largestShare > maxPosition {
		capScale = maxPosition / largestShare
	}

	recs := make([]domain.SizedRecommendation, 0, len(selected))
	for _, r := range selected {
		rec := domain.SizedRecommendation{
			RankedInstrument: r,
			Direction:        domain.DirectionLong,
		}
		if r.ShortHint {
			rec.Direction = domain.DirectionShort
		}

		alloc := r.Scores.Composite / compositeSum * budget * capScale
		// only the position(s) whose raw share sat on the cap are "capped";
		// the rest merely scale with the vector
		capped := capScale < 1.0 && r.Scores.Composite >= maxComposite

		// step 4: overlap dampening
		exp := computeExposure(r, portfolio)
		rec.ExistingExposure = exp.total()
		factor := dampenFactor(exp, portfolio)
		alloc *= factor

		// step 5: floor and zero-out
		if r.AssetClass == domain.AssetSecondary {
			alloc = 0 // surfaced as opportunities only, never sized
		} else if alloc < minPosition {
			alloc = 0
		}

		rec.AllocationUSD = round2(alloc)
		rec.Rationale = buildRationale(r, capped, factor, exp)
		recs = append(recs, rec)
	}

	// step 6: normalize when caps and dampening still overshoot the budget
	var total float64
	for _, rec := range recs {
		total += rec.AllocationUSD
	}
	if total > budget {
		scale := budget / total
		for i := range recs {
			recs[i].AllocationUSD = round2(recs[i].AllocationUSD * scale)
		}
		gaps = append(gaps, domain.Gap{
			Kind:   domain.GapSizingCorrection,
			Stage:  "sizing",
			Detail: fmt.Sprintf("pre-normalization total $%.2f exceeded budget $%.2f, scaled by %.4f", total, budget, scale),
		})
	}

	for i := range recs {
		recs[i].AllocationPct = round2(recs[i].AllocationUSD / budget * 100)
	}

	log.Info().
		Float64("budget", budget).
		Int("positions", len(recs)).
		Msg("Sizing complete")

	return recs, gaps
}

func buildRationale(r domain.RankedInstrument, capped bool, dampen float64, exp exposure) string {
	rationale := fmt.Sprintf("rank #%d, composite %.0f", r.Rank, r.Scores.Composite)
	if theme := r.PrimaryTheme(); theme != "" {
		rationale += ", theme " + theme
	}
	if r.AssetClass == domain.AssetSecondary {
		return rationale + "; pre-listing opportunity, not sized"
	}
	if capped {
		rationale += "; capped at concentration limit"
	}
	if dampen < 1.0 {
		rationale += fmt.Sprintf("; reduced %.0f%% for existing exposure ($%.0f held)", (1-dampen)*100, exp.total())
	}
	if r.ShortHint {
		rationale += "; bearish leg of thesis"
	}
	return rationale
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
