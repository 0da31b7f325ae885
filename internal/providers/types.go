package providers

// Quote is the equity/ETF market snapshot returned by the quote source.
// MarketCap and PERatio are 0 when the source omits them.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap,omitempty"`
	PERatio   float64 `json:"pe_ratio,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
}

// CryptoPrice is a token price snapshot from the batch source or the DEX
// fallback.
type CryptoPrice struct {
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Volume24h float64 `json:"volume_24h,omitempty"`
}

// SearchHit is one ranked text result from the live search provider.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url,omitempty"`
}
