package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convictionlabs/thesisrun/internal/infrastructure/cache"
)

func TestQuoteProvider_ReadThroughCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "NVO", r.URL.Query().Get("symbol"))
		json.NewEncoder(w).Encode(Quote{Price: 102.4, MarketCap: 4.5e11, PERatio: 32, Volume: 3.2e6})
	}))
	defer srv.Close()

	p := NewQuoteProvider(QuoteConfig{BaseURL: srv.URL, CacheTTL: time.Hour}, cache.NewMemory(nil), nil)

	q1, err := p.GetQuote(context.Background(), "NVO")
	require.NoError(t, err)
	assert.Equal(t, 102.4, q1.Price)
	assert.Equal(t, "NVO", q1.Ticker)

	q2, err := p.GetQuote(context.Background(), "NVO")
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second read should hit the cache")
}

func TestQuoteProvider_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewQuoteProvider(QuoteConfig{BaseURL: srv.URL}, nil, nil)
	_, err := p.GetQuote(context.Background(), "ZZZQ")
	assert.Error(t, err)
}

func TestCryptoBatchProvider_PartialResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]batchPriceEntry{
			{Symbol: "eth", PriceUSD: 3350, MarketCap: 4e11, Volume24h: 1.4e10},
		})
	}))
	defer srv.Close()

	p := NewCryptoBatchProvider(CryptoBatchConfig{BaseURL: srv.URL}, nil)
	prices, err := p.GetPrices(context.Background(), []string{"ETH", "OBSCURECOIN"})
	require.NoError(t, err)

	require.Contains(t, prices, "ETH")
	assert.Equal(t, 3350.0, prices["ETH"].Price)
	assert.NotContains(t, prices, "OBSCURECOIN", "partial maps are expected and valid")
}

func TestDexProvider_PicksDeepestLiquidity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]dexPair{
			{PriceUSD: 0.98, LiquidityUSD: 40_000, Volume24h: 9_000},
			{PriceUSD: 1.02, LiquidityUSD: 900_000, Volume24h: 120_000},
			{PriceUSD: 0.50, LiquidityUSD: 1_500, Volume24h: 300},
		})
	}))
	defer srv.Close()

	p := NewDexProvider(DexConfig{BaseURL: srv.URL}, nil)
	price, err := p.GetPairPrice(context.Background(), "OBSCURECOIN")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 1.02, price.Price)
}

func TestDexProvider_UnknownTokenIsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewDexProvider(DexConfig{BaseURL: srv.URL}, nil)
	price, err := p.GetPairPrice(context.Background(), "NOPAIR")
	require.NoError(t, err)
	assert.Nil(t, price)
}
