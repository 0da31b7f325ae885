package discovery

import (
	"strings"

	"github.com/convictionlabs/thesisrun/internal/domain"
)

type aliasEntry struct {
	Ticker     string
	Name       string
	AssetClass domain.AssetClass
}

// aliasTable maps brand, company, product, and token names as they appear in
// thesis prose to canonical tickers. Keys are lowercase; matching is
// substring over the lowercased thesis.
var aliasTable = map[string]aliasEntry{
	// GLP-1 / obesity drugs
	"ozempic":    {Ticker: "NVO", Name: "Novo Nordisk", AssetClass: domain.AssetStock},
	"wegovy":     {Ticker: "NVO", Name: "Novo Nordisk", AssetClass: domain.AssetStock},
	"mounjaro":   {Ticker: "LLY", Name: "Eli Lilly", AssetClass: domain.AssetStock},
	"zepbound":   {Ticker: "LLY", Name: "Eli Lilly", AssetClass: domain.AssetStock},
	"novo nordisk": {Ticker: "NVO", Name: "Novo Nordisk", AssetClass: domain.AssetStock},
	"eli lilly":  {Ticker: "LLY", Name: "Eli Lilly", AssetClass: domain.AssetStock},

	// megacap tech by product/brand
	"chatgpt":    {Ticker: "MSFT", Name: "Microsoft", AssetClass: domain.AssetStock},
	"copilot":    {Ticker: "MSFT", Name: "Microsoft", AssetClass: domain.AssetStock},
	"azure":      {Ticker: "MSFT", Name: "Microsoft", AssetClass: domain.AssetStock},
	"microsoft":  {Ticker: "MSFT", Name: "Microsoft", AssetClass: domain.AssetStock},
	"iphone":     {Ticker: "AAPL", Name: "Apple", AssetClass: domain.AssetStock},
	"apple":      {Ticker: "AAPL", Name: "Apple", AssetClass: domain.AssetStock},
	"google":     {Ticker: "GOOGL", Name: "Alphabet", AssetClass: domain.AssetStock},
	"alphabet":   {Ticker: "GOOGL", Name: "Alphabet", AssetClass: domain.AssetStock},
	"gemini":     {Ticker: "GOOGL", Name: "Alphabet", AssetClass: domain.AssetStock},
	"youtube":    {Ticker: "GOOGL", Name: "Alphabet", AssetClass: domain.AssetStock},
	"amazon":     {Ticker: "AMZN", Name: "Amazon", AssetClass: domain.AssetStock},
	"aws":        {Ticker: "AMZN", Name: "Amazon", AssetClass: domain.AssetStock},
	"facebook":   {Ticker: "META", Name: "Meta Platforms", AssetClass: domain.AssetStock},
	"instagram":  {Ticker: "META", Name: "Meta Platforms", AssetClass: domain.AssetStock},
	"meta":       {Ticker: "META", Name: "Meta Platforms", AssetClass: domain.AssetStock},
	"nvidia":     {Ticker: "NVDA", Name: "NVIDIA", AssetClass: domain.AssetStock},
	"tesla":      {Ticker: "TSLA", Name: "Tesla", AssetClass: domain.AssetStock},
	"cybertruck": {Ticker: "TSLA", Name: "Tesla", AssetClass: domain.AssetStock},
	"netflix":    {Ticker: "NFLX", Name: "Netflix", AssetClass: domain.AssetStock},
	"palantir":   {Ticker: "PLTR", Name: "Palantir", AssetClass: domain.AssetStock},
	"tsmc":       {Ticker: "TSM", Name: "Taiwan Semiconductor", AssetClass: domain.AssetStock},
	"taiwan semiconductor": {Ticker: "TSM", Name: "Taiwan Semiconductor", AssetClass: domain.AssetStock},
	"amd":        {Ticker: "AMD", Name: "Advanced Micro Devices", AssetClass: domain.AssetStock},
	"broadcom":   {Ticker: "AVGO", Name: "Broadcom", AssetClass: domain.AssetStock},
	"coinbase":   {Ticker: "COIN", Name: "Coinbase", AssetClass: domain.AssetStock},
	"robinhood":  {Ticker: "HOOD", Name: "Robinhood", AssetClass: domain.AssetStock},
	"micro strategy": {Ticker: "MSTR", Name: "MicroStrategy", AssetClass: domain.AssetStock},
	"microstrategy":  {Ticker: "MSTR", Name: "MicroStrategy", AssetClass: domain.AssetStock},

	// tokens by name
	"bitcoin":  {Ticker: "BTC", Name: "Bitcoin", AssetClass: domain.AssetCrypto},
	"ethereum": {Ticker: "ETH", Name: "Ethereum", AssetClass: domain.AssetCrypto},
	"solana":   {Ticker: "SOL", Name: "Solana", AssetClass: domain.AssetCrypto},
	"chainlink": {Ticker: "LINK", Name: "Chainlink", AssetClass: domain.AssetCrypto},
	"dogecoin": {Ticker: "DOGE", Name: "Dogecoin", AssetClass: domain.AssetCrypto},
}

// MatchAliases returns candidates for every alias whose key appears in the
// thesis. Longer keys are matched as substrings; single-word keys must sit on
// word boundaries so "meta" does not fire inside "metal".
func MatchAliases(thesis string) []domain.CandidateInstrument {
	lower := strings.ToLower(thesis)
	seen := make(map[string]bool)
	var out []domain.CandidateInstrument
	for key, entry := range aliasTable {
		if seen[entry.Ticker] {
			continue
		}
		var hit bool
		if strings.Contains(key, " ") {
			hit = strings.Contains(lower, key)
		} else {
			hit = containsWord(lower, key)
		}
		if hit {
			seen[entry.Ticker] = true
			out = append(out, domain.CandidateInstrument{
				Ticker:     entry.Ticker,
				Name:       entry.Name,
				AssetClass: entry.AssetClass,
				Source:     "name-alias",
			})
		}
	}
	sortCandidates(out)
	return out
}

// containsWord reports whether word occurs in text on word boundaries.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
