package sizing

// Config holds the sizing policy knobs. Defaults reflect the conservative
// retail profile; a YAML config can override any of them.
type Config struct {
	// LiquidityFloor is cash that never gets allocated when the budget is
	// derived rather than explicit.
	LiquidityFloor float64 `yaml:"liquidity_floor"`
	// TotalFraction caps a derived budget at this fraction of the
	// portfolio's total estimate.
	TotalFraction float64 `yaml:"total_fraction"`
	// MinViableBudget is the smallest budget worth allocating at all; below
	// it the fallback path applies.
	MinViableBudget float64 `yaml:"min_viable_budget"`
	// FallbackCeiling bounds the half-of-cash fallback budget.
	FallbackCeiling float64 `yaml:"fallback_ceiling"`

	// MaxPositions caps the recommendation count.
	MaxPositions int `yaml:"max_positions"`
	// ConcentrationCap is the maximum fraction of budget for any one
	// non-secondary position.
	ConcentrationCap float64 `yaml:"concentration_cap"`
	// MinPositionFraction scales the zero-out floor to the budget.
	MinPositionFraction float64 `yaml:"min_position_fraction"`
	// MinPositionUSD is the absolute zero-out floor.
	MinPositionUSD float64 `yaml:"min_position_usd"`

	// Base slot counts per asset class. Conviction and pool shape adjust
	// them at selection time.
	StockSlots  int `yaml:"stock_slots"`
	ETFSlots    int `yaml:"etf_slots"`
	CryptoSlots int `yaml:"crypto_slots"`
}

// DefaultConfig returns the standard sizing policy.
func DefaultConfig() Config {
	return Config{
		LiquidityFloor:      500,
		TotalFraction:       0.20,
		MinViableBudget:     250,
		FallbackCeiling:     2000,
		MaxPositions:        8,
		ConcentrationCap:    0.25,
		MinPositionFraction: 0.02,
		MinPositionUSD:      50,
		StockSlots:          4,
		ETFSlots:            2,
		CryptoSlots:         2,
	}
}
