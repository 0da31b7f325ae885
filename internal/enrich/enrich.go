package enrich

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/convictionlabs/thesisrun/internal/domain"
	"github.com/convictionlabs/thesisrun/internal/providers"
)

// QuoteSource serves equity/ETF quotes. Failures are per-ticker.
type QuoteSource interface {
	GetQuote(ctx context.Context, ticker string) (providers.Quote, error)
}

// CryptoBatchSource resolves many tokens in one request; partial maps are
// expected and valid.
type CryptoBatchSource interface {
	GetPrices(ctx context.Context, tickers []string) (map[string]providers.CryptoPrice, error)
}

// CryptoFallbackSource resolves a single token from DEX liquidity; a nil
// price with nil error means the token is unknown on-chain.
type CryptoFallbackSource interface {
	GetPairPrice(ctx context.Context, ticker string) (*providers.CryptoPrice, error)
}

// secondaryRiskNote annotates every pre-listing instrument; they are never
// fetched and never priced.
const secondaryRiskNote = "illiquid pre-listing instrument: no public market, price unavailable, surfaced for awareness only"

// maxConcurrentQuoteFetches bounds the equity fan-out.
const maxConcurrentQuoteFetches = 8

// Enricher attaches market data to candidates, one batch per discovery run.
type Enricher struct {
	quotes         QuoteSource
	cryptoBatch    CryptoBatchSource
	cryptoFallback CryptoFallbackSource
}

func NewEnricher(quotes QuoteSource, batch CryptoBatchSource, fallback CryptoFallbackSource) *Enricher {
	return &Enricher{quotes: quotes, cryptoBatch: batch, cryptoFallback: fallback}
}

// Enrich partitions candidates by asset class and applies each class's
// source and failure policy. Equities/ETFs with no data are dropped; crypto
// with no data is kept with a degraded risk note; secondaries are annotated
// without fetching. Output preserves input order within each class grouping
// (equities, then crypto, then secondaries).
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.CandidateInstrument) ([]domain.EnrichedInstrument, []domain.Gap) {
	var equities, crypto, secondaries []domain.CandidateInstrument
	for _, c := range candidates {
		switch c.AssetClass {
		case domain.AssetCrypto:
			crypto = append(crypto, c)
		case domain.AssetSecondary:
			secondaries = append(secondaries, c)
		default: // stock, etf, option all quote through the equity source
			equities = append(equities, c)
		}
	}

	var out []domain.EnrichedInstrument
	var gaps []domain.Gap

	enriched, equityGaps := e.enrichEquities(ctx, equities)
	out = append(out, enriched...)
	gaps = append(gaps, equityGaps...)

	enriched, cryptoGaps := e.enrichCrypto(ctx, crypto)
	out = append(out, enriched...)
	gaps = append(gaps, cryptoGaps...)

	for _, c := range secondaries {
		out = append(out, domain.EnrichedInstrument{
			CandidateInstrument: c,
			Price:               0,
			RiskNote:            secondaryRiskNote,
		})
	}

	log.Info().
		Int("in", len(candidates)).
		Int("out", len(out)).
		Int("gaps", len(gaps)).
		Msg("Enrichment complete")

	return out, gaps
}

// enrichEquities fans out one fetch per ticker. Results land in an
// index-addressed slice, so no ordering or locking issues; failed slots are
// compacted away afterwards (the drop policy for this class).
func (e *Enricher) enrichEquities(ctx context.Context, candidates []domain.CandidateInstrument) ([]domain.EnrichedInstrument, []domain.Gap) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if e.quotes == nil {
		return nil, []domain.Gap{{
			Kind:   domain.GapEnrichment,
			Stage:  "enrichment",
			Source: "quotes",
			Detail: fmt.Sprintf("quote source unavailable, dropped %d equity candidates", len(candidates)),
		}}
	}

	results := make([]*domain.EnrichedInstrument, len(candidates))
	var mu sync.Mutex
	var gaps []domain.Gap

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuoteFetches)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			quote, err := e.quotes.GetQuote(gctx, c.Ticker)
			if err != nil {
				// dropped, never retried inline
				mu.Lock()
				gaps = append(gaps, domain.Gap{
					Kind:   domain.GapEnrichment,
					Stage:  "enrichment",
					Source: "quotes",
					Detail: fmt.Sprintf("%s: %v", c.Ticker, err),
				})
				mu.Unlock()
				return nil
			}
			results[i] = &domain.EnrichedInstrument{
				CandidateInstrument: c,
				Price:               quote.Price,
				MarketCap:           quote.MarketCap,
				PERatio:             quote.PERatio,
				Volume24h:           quote.Volume,
				Catalyst:            catalystForThemes(c.SubThemes),
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines only report via results/gaps

	out := make([]domain.EnrichedInstrument, 0, len(candidates))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, gaps
}

// enrichCrypto resolves the whole class in one batched call, then walks the
// fallback chain per missing ticker. Unlike equities, unpriced tokens are
// kept with a degraded note: crypto tickers are scarce enough to be worth
// surfacing without a live quote.
func (e *Enricher) enrichCrypto(ctx context.Context, candidates []domain.CandidateInstrument) ([]domain.EnrichedInstrument, []domain.Gap) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var gaps []domain.Gap
	batch := map[string]providers.CryptoPrice{}
	if e.cryptoBatch != nil {
		tickers := make([]string, 0, len(candidates))
		for _, c := range candidates {
			tickers = append(tickers, c.Ticker)
		}
		resolved, err := e.cryptoBatch.GetPrices(ctx, tickers)
		if err != nil {
			gaps = append(gaps, domain.Gap{
				Kind:   domain.GapEnrichment,
				Stage:  "enrichment",
				Source: "crypto-batch",
				Detail: err.Error(),
			})
		} else {
			batch = resolved
		}
	}

	out := make([]domain.EnrichedInstrument, 0, len(candidates))
	for _, c := range candidates {
		result := FirstOK(ctx,
			e.batchFetcher(batch, c.Ticker),
			e.dexFetcher(c.Ticker),
		)

		enriched := domain.EnrichedInstrument{
			CandidateInstrument: c,
			Catalyst:            catalystForThemes(c.SubThemes),
		}
		if price, ok := result.Value(); ok {
			enriched.Price = price.Price
			enriched.MarketCap = price.MarketCap
			enriched.Volume24h = price.Volume24h
		} else {
			enriched.RiskNote = "no live price from any source: " + result.Reason()
			gaps = append(gaps, domain.Gap{
				Kind:   domain.GapEnrichment,
				Stage:  "enrichment",
				Source: "crypto",
				Detail: fmt.Sprintf("%s kept without price: %s", c.Ticker, result.Reason()),
			})
		}
		out = append(out, enriched)
	}
	return out, gaps
}

func (e *Enricher) batchFetcher(batch map[string]providers.CryptoPrice, ticker string) Fetcher[providers.CryptoPrice] {
	return func(ctx context.Context) Result[providers.CryptoPrice] {
		if price, ok := batch[ticker]; ok && price.Price > 0 {
			return Ok(price)
		}
		return Failed[providers.CryptoPrice]("absent from batch response")
	}
}

func (e *Enricher) dexFetcher(ticker string) Fetcher[providers.CryptoPrice] {
	return func(ctx context.Context) Result[providers.CryptoPrice] {
		if e.cryptoFallback == nil {
			return Failed[providers.CryptoPrice]("dex fallback unavailable")
		}
		price, err := e.cryptoFallback.GetPairPrice(ctx, ticker)
		if err != nil {
			return Failed[providers.CryptoPrice](fmt.Sprintf("dex lookup: %v", err))
		}
		if price == nil || price.Price <= 0 {
			return Failed[providers.CryptoPrice]("no liquid pair on-chain")
		}
		return Ok(*price)
	}
}

// catalystTable maps themes to known near-term catalysts. Coarse; richer
// catalyst timing belongs to an external model.
var catalystTable = map[string]string{
	"ai-infrastructure": "hyperscaler capex guidance updates",
	"obesity-drugs":     "label expansion and supply ramp readouts",
	"nuclear-power":     "datacenter PPA announcements",
	"crypto-adoption":   "spot ETF flow momentum",
	"semiconductors":    "foundry capacity and export-control news",
	"defense":           "procurement budget cycles",
	"housing":           "rate decisions",
}

func catalystForThemes(themes []string) string {
	for _, theme := range themes {
		if c, ok := catalystTable[theme]; ok {
			return c
		}
	}
	return ""
}
