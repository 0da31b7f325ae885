package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/convictionlabs/thesisrun/internal/application"
	"github.com/convictionlabs/thesisrun/internal/domain"
)

// Format selects the report output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Render writes a run result to w in the requested format.
func Render(w io.Writer, result *application.RunResult, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatText, "":
		return renderText(w, result)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderText(w io.Writer, result *application.RunResult) error {
	fmt.Fprintf(w, "Run %s\n", result.RunID)
	fmt.Fprintf(w, "Thesis: %s\n", result.Thesis)
	fmt.Fprintf(w, "Budget: $%.2f\n\n", result.Budget)

	if len(result.Recommendations) == 0 {
		fmt.Fprintln(w, "No tradeable recommendations.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTICKER\tCLASS\tDIR\tSCORE\tALLOC\tPCT\tRATIONALE")
		for i, r := range result.Recommendations {
			alloc := fmt.Sprintf("$%.2f", r.AllocationUSD)
			if r.AssetClass == domain.AssetSecondary {
				alloc = "watch"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f\t%s\t%.1f%%\t%s\n",
				i+1, r.Ticker, r.AssetClass, r.Direction, r.Scores.Composite,
				alloc, r.AllocationPct, r.Rationale)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(result.Gaps) > 0 {
		fmt.Fprintf(w, "\nGaps (%d):\n", len(result.Gaps))
		for _, g := range result.Gaps {
			fmt.Fprintf(w, "  - %s\n", g.String())
		}
	}

	riskNotes := collectRiskNotes(result.Recommendations)
	if len(riskNotes) > 0 {
		fmt.Fprintln(w, "\nRisk notes:")
		for _, n := range riskNotes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	}
	return nil
}

func collectRiskNotes(recs []domain.SizedRecommendation) []string {
	var notes []string
	for _, r := range recs {
		if strings.TrimSpace(r.RiskNote) == "" {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s: %s", r.Ticker, r.RiskNote))
	}
	return notes
}
