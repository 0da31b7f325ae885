package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/convictionlabs/thesisrun/internal/infrastructure/cache"
	"github.com/convictionlabs/thesisrun/internal/infrastructure/httpclient"
	"github.com/convictionlabs/thesisrun/internal/infrastructure/ratelimit"
	"github.com/convictionlabs/thesisrun/internal/telemetry"
)

// ErrSearchTimeout means a submitted search job exceeded its poll budget.
// Terminal for that one query; never retried within the same run.
var ErrSearchTimeout = errors.New("search job timed out")

// SearchConfig configures the live search provider.
type SearchConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
	PollTimeout  time.Duration
	CacheTTL     time.Duration
	// CallsPerSecond throttles submissions; the provider enforces a hard
	// per-interval limit upstream.
	CallsPerSecond float64
}

// SearchProvider talks to a submit-then-poll search API: a query is posted as
// a job, then polled at a fixed interval until it completes or the poll
// budget runs out. Submissions are rate limited to one per provider interval.
type SearchProvider struct {
	baseURL      string
	apiKey       string
	client       *httpclient.ClientPool
	limiter      *ratelimit.Limiter
	cache        cache.Cache
	cacheTTL     time.Duration
	pollInterval time.Duration
	pollTimeout  time.Duration
	metrics      *telemetry.MetricsRegistry
}

func NewSearchProvider(config SearchConfig, c cache.Cache, metrics *telemetry.MetricsRegistry) *SearchProvider {
	if config.PollInterval == 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = 30 * time.Second
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = time.Hour
	}
	if config.CallsPerSecond == 0 {
		config.CallsPerSecond = 0.5 // one call per two seconds
	}
	return &SearchProvider{
		baseURL:      config.BaseURL,
		apiKey:       config.APIKey,
		client:       httpclient.NewClientPool(httpclient.DefaultConfig()),
		limiter:      ratelimit.NewLimiter(config.CallsPerSecond, 1),
		cache:        c,
		cacheTTL:     config.CacheTTL,
		pollInterval: config.PollInterval,
		pollTimeout:  config.PollTimeout,
		metrics:      metrics,
	}
}

type searchJob struct {
	JobID  string      `json:"job_id"`
	Status string      `json:"status"`
	Hits   []SearchHit `json:"hits,omitempty"`
}

// Search runs one query end to end: cache check, rate-limited submit, poll
// until done. The per-query cache means repeated theses do not burn quota.
func (p *SearchProvider) Search(ctx context.Context, query string) ([]SearchHit, error) {
	cacheKey := "search:" + query
	if p.cache != nil {
		if raw, ok := p.cache.Get(cacheKey); ok {
			var hits []SearchHit
			if err := json.Unmarshal(raw, &hits); err == nil {
				if p.metrics != nil {
					p.metrics.CacheHits.WithLabelValues("search").Inc()
				}
				return hits, nil
			}
		}
		if p.metrics != nil {
			p.metrics.CacheMisses.WithLabelValues("search").Inc()
		}
	}

	if err := p.limiter.Wait(ctx, "search"); err != nil {
		return nil, err
	}

	jobID, err := p.submit(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := p.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if raw, err := json.Marshal(hits); err == nil {
			p.cache.Set(cacheKey, raw, p.cacheTTL)
		}
	}
	return hits, nil
}

func (p *SearchProvider) submit(ctx context.Context, query string) (string, error) {
	body, _ := json.Marshal(map[string]string{"query": query})
	req, err := http.NewRequest(http.MethodPost, p.baseURL+"/v1/search/jobs", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if p.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ProviderRequests.WithLabelValues("search", outcome).Inc()
	}
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var job searchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("decode search job: %w", err)
	}
	if job.JobID == "" {
		return "", fmt.Errorf("search job submission returned no job id")
	}
	return job.JobID, nil
}

func (p *SearchProvider) poll(ctx context.Context, jobID string) ([]SearchHit, error) {
	deadline := time.Now().Add(p.pollTimeout)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		job, err := p.getJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case "done":
			return job.Hits, nil
		case "failed":
			return nil, fmt.Errorf("search job %s failed upstream", jobID)
		}

		if time.Now().After(deadline) {
			log.Warn().Str("job_id", jobID).Dur("budget", p.pollTimeout).Msg("Search job poll budget exhausted")
			return nil, ErrSearchTimeout
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *SearchProvider) getJob(ctx context.Context, jobID string) (*searchJob, error) {
	req, err := http.NewRequest(http.MethodGet, p.baseURL+"/v1/search/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var job searchJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode search job: %w", err)
	}
	return &job, nil
}
