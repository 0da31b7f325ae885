package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/infrastructure/httpclient"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// CryptoBatchConfig configures the primary token price source.
type CryptoBatchConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// CryptoBatchProvider resolves token prices in a single batched request.
// Partial responses are expected and valid; callers fall back per missing
// ticker.
type CryptoBatchProvider struct {
	baseURL string
	apiKey  string
	client  *httpclient.ClientPool
	metrics *telemetry.MetricsRegistry
}

func NewCryptoBatchProvider(config CryptoBatchConfig, metrics *telemetry.MetricsRegistry) *CryptoBatchProvider {
	clientConfig := httpclient.DefaultConfig()
	clientConfig.MaxConcurrency = 2 // free tier
	if config.RequestTimeout > 0 {
		clientConfig.RequestTimeout = config.RequestTimeout
	}
	return &CryptoBatchProvider{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		client:  httpclient.NewClientPool(clientConfig),
		metrics: metrics,
	}
}

type batchPriceEntry struct {
	Symbol    string  `json:"symbol"`
	PriceUSD  float64 `json:"price_usd"`
	MarketCap float64 `json:"market_cap"`
	Volume24h float64 `json:"volume_24h"`
}

// GetPrices returns a map keyed by uppercase token symbol. Tickers absent
// from the response are simply missing from the map.
func (p *CryptoBatchProvider) GetPrices(ctx context.Context, tickers []string) (map[string]CryptoPrice, error) {
	if len(tickers) == 0 {
		return map[string]CryptoPrice{}, nil
	}

	u := fmt.Sprintf("%s/v1/prices?symbols=%s&vs=usd",
		p.baseURL, url.QueryEscape(strings.Join(tickers, ",")))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if p.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ProviderRequests.WithLabelValues("crypto_batch", outcome).Inc()
	}
	if err != nil {
		log.Error().Err(err).Int("tickers", len(tickers)).Msg("Crypto batch request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var entries []batchPriceEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode batch prices: %w", err)
	}

	prices := make(map[string]CryptoPrice, len(entries))
	for _, e := range entries {
		prices[strings.ToUpper(e.Symbol)] = CryptoPrice{
			Price:     e.PriceUSD,
			MarketCap: e.MarketCap,
			Volume24h: e.Volume24h,
		}
	}

	log.Debug().
		Int("requested", len(tickers)).
		Int("resolved", len(prices)).
		Msg("Crypto batch prices retrieved")

	return prices, nil
}
