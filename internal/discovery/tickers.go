package discovery

import (
	"regexp"
	"strings"
)

// Ticker extraction is heuristic and regex-driven. The exact word-boundary
// rules and denylist membership are part of the tested contract, so
// everything here is a pure function over strings.

var (
	// $TSLA, $btc
	cashtagPattern = regexp.MustCompile(`\$([A-Za-z]{1,6})\b`)
	// (NASDAQ: NVDA), (NYSE:KO), (ticker: PLTR)
	parentheticalPattern = regexp.MustCompile(`\((?:NYSE|NASDAQ|AMEX|OTC|ticker)[:\s]+([A-Z]{1,6})\)`)
	// bare uppercase tokens in search-result text: "NVDA jumped 5%"
	bareTickerPattern = regexp.MustCompile(`\b([A-Z]{2,6})\b`)
	// "Tesla (TSLA)" style in prose
	proseTickerPattern = regexp.MustCompile(`[A-Z][a-z]+\s+\(([A-Z]{1,6})\)`)
)

// tickerDenylist rejects tokens that match ticker shape but are almost never
// tickers in financial prose: common words, currency codes, stablecoins,
// market shorthand.
var tickerDenylist = map[string]bool{
	// common words and abbreviations
	"A": true, "I": true, "AN": true, "AT": true, "BE": true, "BY": true,
	"DO": true, "GO": true, "IF": true, "IN": true, "IS": true, "IT": true,
	"NO": true, "OF": true, "ON": true, "OR": true, "SO": true, "TO": true,
	"UP": true, "US": true, "WE": true, "THE": true, "AND": true, "FOR": true,
	"NEW": true, "NOW": true, "ALL": true, "ARE": true, "BUY": true,
	"CAN": true, "GET": true, "HAS": true, "HOW": true, "NOT": true,
	"ONE": true, "OUT": true, "SEE": true, "TOP": true, "WHO": true,
	"WHY": true, "WILL": true, "WITH": true, "THIS": true, "THAT": true,
	"FROM": true, "HAVE": true, "MORE": true, "OVER": true, "THAN": true,
	"BEST": true, "HIGH": true, "YEAR": true, "NEXT": true, "LIKE": true,
	// market and macro shorthand
	"AI": true, "ML": true, "CEO": true, "CFO": true, "CTO": true,
	"IPO": true, "ETF": true, "ETFS": true, "GDP": true, "CPI": true,
	"FED": true, "SEC": true, "FDA": true, "NYSE": true, "OTC": true,
	"YOY": true, "EPS": true, "ROI": true, "PE": true, "API": true,
	"UK": true, "EU": true, "USA": true, "Q1": true, "Q2": true,
	"Q3": true, "Q4": true, "H1": true, "H2": true, "FY": true,
	// fiat currency codes
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CNY": true,
	"CHF": true, "CAD": true, "AUD": true, "KRW": true, "INR": true,
	// stablecoins: price-pegged, never a thesis position
	"USDT": true, "USDC": true, "DAI": true, "BUSD": true, "TUSD": true,
	"FDUSD": true, "PYUSD": true,
}

// IsDenylisted reports whether token may not be treated as a ticker.
func IsDenylisted(token string) bool {
	return tickerDenylist[strings.ToUpper(token)]
}

// ExtractCashtags returns the canonical tickers of all cashtag forms in text.
func ExtractCashtags(text string) []string {
	return extractWithPattern(cashtagPattern, text)
}

// ExtractParentheticals returns tickers in exchange-qualified or prose
// parenthetical forms.
func ExtractParentheticals(text string) []string {
	out := extractWithPattern(parentheticalPattern, text)
	return append(out, extractWithPattern(proseTickerPattern, text)...)
}

// ExtractSearchTickers pulls ticker-like tokens from free search-result text
// using all patterns, most specific first. Bare uppercase tokens are accepted
// only when not denylisted.
func ExtractSearchTickers(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tickers []string) {
		for _, tk := range tickers {
			if !seen[tk] {
				seen[tk] = true
				out = append(out, tk)
			}
		}
	}
	add(extractWithPattern(cashtagPattern, text))
	add(extractWithPattern(parentheticalPattern, text))
	add(extractWithPattern(proseTickerPattern, text))
	add(extractWithPattern(bareTickerPattern, text))
	return out
}

func extractWithPattern(pattern *regexp.Regexp, text string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	var out []string
	for _, m := range matches {
		ticker := strings.ToUpper(m[1])
		if IsDenylisted(ticker) {
			continue
		}
		out = append(out, ticker)
	}
	return out
}
