package sizing

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

// ResolveBudget picks the spendable amount for a run. An explicit budget is
// authoritative. Otherwise the budget derives from liquid cash minus the
// liquidity floor, capped at a fraction of the portfolio's total estimate;
// when the derived amount is too small to size positions at all, the
// fallback is half of liquid cash under a fixed ceiling.
func ResolveBudget(cfg Config, portfolio domain.Portfolio, explicit float64) float64 {
	if explicit > 0 {
		return explicit
	}

	derived := portfolio.LiquidCash - cfg.LiquidityFloor
	if ceiling := cfg.TotalFraction * portfolio.TotalEstimate; ceiling > 0 {
		derived = math.Min(derived, ceiling)
	}

	if derived < cfg.MinViableBudget {
		fallback := math.Min(portfolio.LiquidCash/2, cfg.FallbackCeiling)
		fallback = math.Max(fallback, 0)
		log.Debug().
			Float64("derived", derived).
			Float64("fallback", fallback).
			Msg("Derived budget below viable minimum, using fallback")
		return fallback
	}
	return derived
}
