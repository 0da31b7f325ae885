package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/infrastructure/httpclient"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// DexConfig configures the DEX-liquidity fallback price source.
type DexConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// DexProvider resolves a single token against on-chain pairs and returns the
// price of the deepest-liquidity pair. Used only when the batch source misses
// a ticker.
type DexProvider struct {
	baseURL string
	client  *httpclient.ClientPool
	metrics *telemetry.MetricsRegistry
}

func NewDexProvider(config DexConfig, metrics *telemetry.MetricsRegistry) *DexProvider {
	clientConfig := httpclient.DefaultConfig()
	if config.RequestTimeout > 0 {
		clientConfig.RequestTimeout = config.RequestTimeout
	}
	return &DexProvider{
		baseURL: config.BaseURL,
		client:  httpclient.NewClientPool(clientConfig),
		metrics: metrics,
	}
}

type dexPair struct {
	PriceUSD     float64 `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	Volume24h    float64 `json:"volume_24h"`
}

// GetPairPrice returns the best-liquidity-pair price for ticker, or nil when
// no pair exists. A nil result with nil error is the "token unknown on-chain"
// case, distinct from a transport failure.
func (p *DexProvider) GetPairPrice(ctx context.Context, ticker string) (*CryptoPrice, error) {
	u := fmt.Sprintf("%s/v1/pairs/search?symbol=%s", p.baseURL, url.QueryEscape(ticker))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(ctx, req)
	if p.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ProviderRequests.WithLabelValues("dex_fallback", outcome).Inc()
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var pairs []dexPair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("decode pairs: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	best := pairs[0]
	for _, pair := range pairs[1:] {
		if pair.LiquidityUSD > best.LiquidityUSD {
			best = pair
		}
	}

	log.Debug().
		Str("ticker", ticker).
		Float64("price", best.PriceUSD).
		Float64("liquidity", best.LiquidityUSD).
		Msg("DEX fallback price resolved")

	return &CryptoPrice{Price: best.PriceUSD, Volume24h: best.Volume24h}, nil
}
