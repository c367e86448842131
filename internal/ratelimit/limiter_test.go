package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbpro/pkg/core"
)

func TestLimiter_New(t *testing.T) {
	limiter := New(10, time.Second)

	require.NotNil(t, limiter)
	assert.Equal(t, 10, limiter.defaults.RequestsPerSecond)
	assert.Equal(t, 10, limiter.defaults.Burst)
}

func TestLimiter_NewFromConfigClampsZero(t *testing.T) {
	limiter := NewFromConfig(core.RateLimitConfig{})

	assert.Equal(t, 1, limiter.defaults.RequestsPerSecond)
	assert.Equal(t, 1, limiter.defaults.Burst)
}

// waitBriefly reports whether bucket admits a request within 20ms.
func waitBriefly(l *Limiter, bucket string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, bucket) == nil
}

func TestLimiter_GlobalBurst(t *testing.T) {
	limiter := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, waitBriefly(limiter, ""), "request %d should be allowed", i+1)
	}
	assert.False(t, waitBriefly(limiter, ""), "request 6 should be blocked")

	snap := limiter.Metrics()
	assert.Equal(t, int64(6), snap.TotalRequests)
	assert.Equal(t, int64(5), snap.AllowedRequests)
	assert.Equal(t, int64(1), snap.DeniedRequests)
}

func TestLimiter_BucketTighterThanGlobal(t *testing.T) {
	limiter := New(10, time.Second)
	limiter.Configure("trading", core.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	assert.True(t, waitBriefly(limiter, "trading"))
	assert.True(t, waitBriefly(limiter, "trading"))
	assert.False(t, waitBriefly(limiter, "trading"), "trading bucket should be exhausted")

	assert.True(t, waitBriefly(limiter, "private"), "other buckets keep their own budget")
}

func TestLimiter_Wait(t *testing.T) {
	limiter := New(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Wait(context.Background(), "private"))
	}

	snap := limiter.Metrics()
	assert.Equal(t, int64(5), snap.TotalRequests)
	assert.Equal(t, int64(5), snap.AllowedRequests)
	assert.Equal(t, 1, snap.BucketCount)
}

func TestLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New(1, time.Second)

	require.NoError(t, limiter.Wait(context.Background(), ""))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx, ""))
	assert.Equal(t, int64(1), limiter.Metrics().DeniedRequests)
}

func TestLimiter_ConfigureExisting(t *testing.T) {
	limiter := New(100, time.Second)
	limiter.Configure("trading", core.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})

	assert.True(t, waitBriefly(limiter, "trading"))
	assert.False(t, waitBriefly(limiter, "trading"))

	limiter.Configure("trading", core.RateLimitConfig{RequestsPerSecond: 1000, Burst: 10})
	time.Sleep(20 * time.Millisecond)
	assert.True(t, waitBriefly(limiter, "trading"))
	assert.Equal(t, 1, limiter.Metrics().BucketCount)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(100, time.Second)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- waitBriefly(limiter, "private")
		}()
	}

	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}

	assert.GreaterOrEqual(t, allowed, 100, "the burst should be admitted")
	assert.LessOrEqual(t, allowed, 110, "should not allow much more than the burst")

	snap := limiter.Metrics()
	assert.Equal(t, int64(200), snap.TotalRequests)
	assert.Equal(t, snap.TotalRequests, snap.AllowedRequests+snap.DeniedRequests)
}
