package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(2.0, 2)

	assert.True(t, limiter.Allow("search"))
	assert.True(t, limiter.Allow("search"))
	assert.False(t, limiter.Allow("search"), "burst exhausted")
}

func TestLimiter_IndependentSources(t *testing.T) {
	limiter := NewLimiter(1.0, 1)

	assert.True(t, limiter.Allow("search"))
	assert.True(t, limiter.Allow("quotes"))
	assert.False(t, limiter.Allow("search"))
	assert.False(t, limiter.Allow("quotes"))
}

func TestLimiter_WaitEnforcesDelay(t *testing.T) {
	limiter := NewLimiter(20.0, 1) // 50ms between calls

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx, "search"))

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "search"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond, "second call should wait for a token")
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.1, 1) // 10s between calls
	require.NoError(t, limiter.Wait(context.Background(), "slow"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "slow")
	assert.Error(t, err)
}
