package httpclient

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ClientConfig tunes the shared HTTP client used by market-data providers.
type ClientConfig struct {
	MaxConcurrency int
	RequestTimeout time.Duration
	JitterRange    [2]int // min/max jitter in milliseconds
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string
}

// DefaultConfig is conservative enough for free-tier data sources.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		MaxConcurrency: 4,
		RequestTimeout: 10 * time.Second,
		JitterRange:    [2]int{25, 100},
		MaxRetries:     2,
		BackoffBase:    time.Second,
		BackoffMax:     15 * time.Second,
		UserAgent:      "thesisrun/1.0",
	}
}

// ClientPool bounds concurrency and retries transient failures with jittered
// exponential backoff.
type ClientPool struct {
	config    ClientConfig
	semaphore chan struct{}
	client    *http.Client
}

func NewClientPool(config ClientConfig) *ClientPool {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	return &ClientPool{
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
		client:    &http.Client{Timeout: config.RequestTimeout},
	}
}

// Do executes req within the pool's concurrency limit. Server errors (5xx)
// and transport errors are retried up to MaxRetries.
func (cp *ClientPool) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	select {
	case cp.semaphore <- struct{}{}:
		defer func() { <-cp.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if cp.config.UserAgent != "" {
		req.Header.Set("User-Agent", cp.config.UserAgent)
	}

	if err := cp.applyJitter(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= cp.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// the previous attempt consumed the body; replay it or stop
			if req.Body != nil {
				if req.GetBody == nil {
					break
				}
				body, err := req.GetBody()
				if err != nil {
					lastErr = fmt.Errorf("rewind request body: %w", err)
					break
				}
				req.Body = body
			}

			backoff := cp.calculateBackoff(attempt)
			log.Debug().
				Dur("backoff", backoff).
				Int("attempt", attempt).
				Str("url", req.URL.String()).
				Msg("Retrying HTTP request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := cp.client.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", cp.config.MaxRetries+1, lastErr)
}

func (cp *ClientPool) applyJitter(ctx context.Context) error {
	min, max := cp.config.JitterRange[0], cp.config.JitterRange[1]
	if max <= min {
		return nil
	}
	jitter := time.Duration(min+rand.Intn(max-min)) * time.Millisecond
	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (cp *ClientPool) calculateBackoff(attempt int) time.Duration {
	backoff := cp.config.BackoffBase
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > cp.config.BackoffMax {
			return cp.config.BackoffMax
		}
	}
	return backoff
}
