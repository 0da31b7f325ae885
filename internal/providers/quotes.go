package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/convictionlabs/thesisrun/internal/infrastructure/cache"
	"github.com/convictionlabs/thesisrun/internal/infrastructure/httpclient"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// QuoteConfig configures the equity/ETF quote source.
type QuoteConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
}

// QuoteProvider fetches equity/ETF quotes through a per-ticker read-through
// cache. A circuit breaker shields the run from a flapping upstream: once it
// opens, remaining tickers fail fast and become enrichment gaps instead of
// stacking up timeouts.
type QuoteProvider struct {
	baseURL string
	apiKey  string
	client  *httpclient.ClientPool
	cache   cache.Cache
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
	metrics *telemetry.MetricsRegistry
}

// NewQuoteProvider builds a provider over the given cache. A nil cache
// disables caching (every call hits the network).
func NewQuoteProvider(config QuoteConfig, c cache.Cache, metrics *telemetry.MetricsRegistry) *QuoteProvider {
	clientConfig := httpclient.DefaultConfig()
	if config.RequestTimeout > 0 {
		clientConfig.RequestTimeout = config.RequestTimeout
	}
	if config.MaxRetries > 0 {
		clientConfig.MaxRetries = config.MaxRetries
	}

	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "quotes",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Quote provider circuit state changed")
		},
	})

	return &QuoteProvider{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		client:  httpclient.NewClientPool(clientConfig),
		cache:   c,
		ttl:     ttl,
		breaker: breaker,
		metrics: metrics,
	}
}

// GetQuote returns the quote for ticker, serving from cache when fresh.
func (p *QuoteProvider) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	cacheKey := "quote:" + ticker
	if p.cache != nil {
		if raw, ok := p.cache.Get(cacheKey); ok {
			var q Quote
			if err := json.Unmarshal(raw, &q); err == nil {
				if p.metrics != nil {
					p.metrics.CacheHits.WithLabelValues("quotes").Inc()
				}
				return q, nil
			}
		}
		if p.metrics != nil {
			p.metrics.CacheMisses.WithLabelValues("quotes").Inc()
		}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchQuote(ctx, ticker)
	})
	if err != nil {
		if p.metrics != nil {
			p.metrics.ProviderErrors.WithLabelValues("quotes", errorReason(err)).Inc()
		}
		return Quote{}, err
	}

	q := result.(Quote)
	if p.cache != nil {
		if raw, err := json.Marshal(q); err == nil {
			p.cache.Set(cacheKey, raw, p.ttl)
		}
	}
	return q, nil
}

func (p *QuoteProvider) fetchQuote(ctx context.Context, ticker string) (Quote, error) {
	u := fmt.Sprintf("%s/v1/quote?symbol=%s", p.baseURL, url.QueryEscape(ticker))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return Quote{}, err
	}
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(ctx, req)
	if p.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ProviderRequests.WithLabelValues("quotes", outcome).Inc()
	}
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("Quote request failed")
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, fmt.Errorf("no quote for %s", ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}
	q.Ticker = ticker

	log.Debug().
		Str("ticker", ticker).
		Float64("price", q.Price).
		Dur("duration", time.Since(start)).
		Msg("Quote retrieved")

	return q, nil
}

func errorReason(err error) string {
	switch {
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		return "circuit_open"
	case err == context.DeadlineExceeded:
		return "timeout"
	default:
		return "api_error"
	}
}
