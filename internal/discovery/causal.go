package discovery

import "regexp"

// causalRule maps a broad causal pattern in the thesis to themes it implies.
// These are weighted below direct keyword hits and only fill theme slots left
// open by the static map.
type causalRule struct {
	Pattern *regexp.Regexp
	Themes  []string
}

var causalRules = []causalRule{
	{
		// compute demand outrunning supply implies power and chips
		Pattern: regexp.MustCompile(`(?i)(compute|inference|training)\s+(demand|costs?|capacity)`),
		Themes:  []string{"nuclear-power", "semiconductors"},
	},
	{
		// agents/automation replacing human work implies robotics longs and
		// staffing shorts
		Pattern: regexp.MustCompile(`(?i)(replace|displace|automate)\w*\s+([\w-]+\s+){0,3}(jobs?|workers?|labor|labour|employees?)`),
		Themes:  []string{"automation-labor", "staffing"},
	},
	{
		// energy transition pressure implies grid and nuclear buildout
		Pattern: regexp.MustCompile(`(?i)(electricity|power|energy)\s+([\w-]+\s+){0,2}(shortage|demand|crunch|prices?)`),
		Themes:  []string{"nuclear-power", "electrification"},
	},
	{
		// monetary debasement / inflation hedging implies hard assets
		Pattern: regexp.MustCompile(`(?i)(debase|devalu|inflat|money\s+printing|fiat)`),
		Themes:  []string{"crypto-adoption"},
	},
	{
		// conflict escalation implies defense spend
		Pattern: regexp.MustCompile(`(?i)(invasion|escalat\w+|conflict|taiwan|nato)`),
		Themes:  []string{"defense"},
	},
	{
		// rate-cut cycles imply rate-sensitive sectors
		Pattern: regexp.MustCompile(`(?i)(rate\s+cuts?|easing|lower\s+rates|fed\s+pivot)`),
		Themes:  []string{"housing", "payments-fintech"},
	},
}

// maxCombinedThemes caps direct plus causal themes per run.
const maxCombinedThemes = 5

// ExpandCausalThemes appends themes implied by causal patterns to the direct
// matches, skipping duplicates, up to maxCombinedThemes total.
func ExpandCausalThemes(thesis string, direct []string) []string {
	combined := make([]string, 0, maxCombinedThemes)
	seen := make(map[string]bool)
	for _, t := range direct {
		if len(combined) >= maxCombinedThemes {
			return combined
		}
		if !seen[t] {
			seen[t] = true
			combined = append(combined, t)
		}
	}
	for _, rule := range causalRules {
		if !rule.Pattern.MatchString(thesis) {
			continue
		}
		for _, t := range rule.Themes {
			if len(combined) >= maxCombinedThemes {
				return combined
			}
			if !seen[t] {
				seen[t] = true
				combined = append(combined, t)
			}
		}
	}
	return combined
}
