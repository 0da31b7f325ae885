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

func newSearchServer(t *testing.T, pollsUntilDone int32, hits []SearchHit) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(searchJob{JobID: "job-1", Status: "pending"})
	})
	mux.HandleFunc("/v1/search/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		if n >= pollsUntilDone {
			json.NewEncoder(w).Encode(searchJob{JobID: "job-1", Status: "done", Hits: hits})
			return
		}
		json.NewEncoder(w).Encode(searchJob{JobID: "job-1", Status: "running"})
	})
	return httptest.NewServer(mux), &polls
}

func TestSearchProvider_SubmitThenPoll(t *testing.T) {
	want := []SearchHit{{Title: "AI datacenter buildout", Snippet: "NVDA and VRT lead"}}
	srv, polls := newSearchServer(t, 3, want)
	defer srv.Close()

	p := NewSearchProvider(SearchConfig{
		BaseURL:        srv.URL,
		PollInterval:   10 * time.Millisecond,
		PollTimeout:    time.Second,
		CallsPerSecond: 1000,
	}, nil, nil)

	hits, err := p.Search(context.Background(), "ai datacenter stocks")
	require.NoError(t, err)
	assert.Equal(t, want, hits)
	assert.GreaterOrEqual(t, atomic.LoadInt32(polls), int32(3), "should poll until the job reports done")
}

func TestSearchProvider_PollBudgetExhausted(t *testing.T) {
	srv, _ := newSearchServer(t, 1<<30, nil) // never completes
	defer srv.Close()

	p := NewSearchProvider(SearchConfig{
		BaseURL:        srv.URL,
		PollInterval:   5 * time.Millisecond,
		PollTimeout:    30 * time.Millisecond,
		CallsPerSecond: 1000,
	}, nil, nil)

	_, err := p.Search(context.Background(), "never finishes")
	assert.ErrorIs(t, err, ErrSearchTimeout)
}

func TestSearchProvider_CacheSkipsNetwork(t *testing.T) {
	want := []SearchHit{{Title: "cached", Snippet: "MSFT"}}
	srv, _ := newSearchServer(t, 1, want)

	c := cache.NewMemory(nil)
	p := NewSearchProvider(SearchConfig{
		BaseURL:        srv.URL,
		PollInterval:   5 * time.Millisecond,
		PollTimeout:    time.Second,
		CallsPerSecond: 1000,
	}, c, nil)

	first, err := p.Search(context.Background(), "cloud capex")
	require.NoError(t, err)

	// Second call must be served from cache even with the server gone.
	srv.Close()
	second, err := p.Search(context.Background(), "cloud capex")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
