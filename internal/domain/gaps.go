package domain

import (
	"errors"
	"fmt"
)

// GapKind classifies a non-fatal problem encountered during a run.
type GapKind string

const (
	// GapDiscovery: a discovery source returned nothing.
	GapDiscovery GapKind = "discovery_gap"
	// GapEnrichment: a ticker's data could not be obtained from any fallback.
	GapEnrichment GapKind = "enrichment_failure"
	// GapSourceTimeout: an async external job exceeded its poll budget.
	GapSourceTimeout GapKind = "source_timeout"
	// GapSizingCorrection: pre-normalization total exceeded budget and was
	// proportionally scaled. Informational only.
	GapSizingCorrection GapKind = "sizing_correction"
)

// Gap records one non-fatal issue. Gaps accumulate alongside results so
// callers see both the best-effort recommendations and what went wrong.
type Gap struct {
	Kind   GapKind `json:"kind"`
	Stage  string  `json:"stage"`
	Source string  `json:"source,omitempty"`
	Detail string  `json:"detail"`
}

func (g Gap) String() string {
	if g.Source != "" {
		return fmt.Sprintf("[%s] %s/%s: %s", g.Kind, g.Stage, g.Source, g.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", g.Kind, g.Stage, g.Detail)
}

// Fatal input errors abort a run before the first stage executes.
var (
	ErrEmptyThesis      = errors.New("thesis text is empty")
	ErrInvalidPortfolio = errors.New("portfolio state is unparsable")
)

// ValidatePortfolio rejects snapshots whose totals cannot be reconciled.
func ValidatePortfolio(p Portfolio) error {
	if p.LiquidCash < 0 || p.TotalEstimate < 0 {
		return fmt.Errorf("%w: negative totals", ErrInvalidPortfolio)
	}
	for ticker, pos := range p.Positions {
		if ticker == "" {
			return fmt.Errorf("%w: empty ticker key", ErrInvalidPortfolio)
		}
		if pos.USD < 0 {
			return fmt.Errorf("%w: negative position %s", ErrInvalidPortfolio, ticker)
		}
	}
	return nil
}
