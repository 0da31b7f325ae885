package application

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/decompose"
	"github.com/convictionlabs/thesisrun/internal/discovery"
	"github.com/convictionlabs/thesisrun/internal/enrich"
	"github.com/convictionlabs/thesisrun/internal/infrastructure/cache"
	"github.com/convictionlabs/thesisrun/internal/providers"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// BuildPipeline assembles a production pipeline from configuration. Optional
// layers degrade rather than fail: no search endpoint disables the search
// layer, no LLM key disables decomposition, and discovery falls back to its
// keyword paths.
func BuildPipeline(cfg *Config, store RunStore) *Pipeline {
	metrics := telemetry.Default()
	c := cache.Auto(cfg.Cache.RedisAddr)

	var searcher discovery.Searcher
	if cfg.Search.BaseURL != "" {
		searcher = providers.NewSearchProvider(providers.SearchConfig{
			BaseURL:        cfg.Search.BaseURL,
			APIKey:         cfg.Search.APIKey(),
			PollInterval:   cfg.Search.PollInterval,
			PollTimeout:    cfg.Search.PollTimeout,
			CacheTTL:       cfg.Search.CacheTTL,
			CallsPerSecond: cfg.Search.CallsPerSecond,
		}, c, metrics)
	} else {
		log.Debug().Msg("No search endpoint configured, web discovery layer disabled")
	}

	var decomposer discovery.Decomposer
	if key := os.Getenv(cfg.Decompose.APIKeyEnv); key != "" {
		d, err := decompose.New(decompose.Config{
			APIKey:    key,
			Model:     cfg.Decompose.Model,
			MaxTokens: cfg.Decompose.MaxTokens,
			Timeout:   cfg.Decompose.Timeout,
		})
		if err != nil {
			log.Debug().Err(err).Msg("Thesis decomposition disabled")
		} else {
			decomposer = d
		}
	} else {
		log.Debug().Msg("No LLM key configured, thesis decomposition disabled")
	}

	discoverer := discovery.NewDiscoverer(searcher, decomposer)

	quotes := providers.NewQuoteProvider(providers.QuoteConfig{
		BaseURL:        cfg.Quotes.BaseURL,
		APIKey:         cfg.Quotes.APIKey(),
		RequestTimeout: cfg.Quotes.RequestTimeout,
		CacheTTL:       cfg.Quotes.CacheTTL,
	}, c, metrics)
	batch := providers.NewCryptoBatchProvider(providers.CryptoBatchConfig{
		BaseURL:        cfg.CryptoAPI.BaseURL,
		APIKey:         cfg.CryptoAPI.APIKey(),
		RequestTimeout: cfg.CryptoAPI.RequestTimeout,
	}, metrics)
	dex := providers.NewDexProvider(providers.DexConfig{
		BaseURL:        cfg.Dex.BaseURL,
		RequestTimeout: cfg.Dex.RequestTimeout,
	}, metrics)

	enricher := enrich.NewEnricher(quotes, batch, dex)

	return NewPipeline(discoverer, enricher, cfg.Sizing, store, metrics)
}
