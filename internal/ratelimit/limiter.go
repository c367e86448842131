package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"cbpro/pkg/core"
)

// Limiter charges every request to a global limiter and, when a bucket is
// named, to that bucket as well. Unknown buckets share the global settings.
type Limiter struct {
	global *rate.Limiter

	mu       sync.RWMutex
	buckets  map[string]*rate.Limiter
	defaults core.RateLimitConfig

	metrics metrics
}

type metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
	waitNs  atomic.Int64
}

// New creates a limiter allowing requests per period, with a burst of requests.
func New(requests int, period time.Duration) *Limiter {
	cfg := core.RateLimitConfig{
		RequestsPerSecond: perSecond(requests, period),
		Burst:             requests,
	}
	return NewFromConfig(cfg)
}

func NewFromConfig(cfg core.RateLimitConfig) *Limiter {
	if cfg.RequestsPerSecond < 1 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		buckets:  make(map[string]*rate.Limiter),
		defaults: cfg,
	}
}

func perSecond(requests int, period time.Duration) int {
	if period <= 0 {
		return requests
	}
	rps := int(float64(requests) / period.Seconds())
	if rps < 1 {
		rps = 1
	}
	return rps
}

// Configure sets the limits of bucket, creating it if needed.
func (l *Limiter) Configure(bucket string, cfg core.RateLimitConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.buckets[bucket]; ok {
		lim.SetLimit(rate.Limit(cfg.RequestsPerSecond))
		lim.SetBurst(cfg.Burst)
		return
	}
	l.buckets[bucket] = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

func (l *Limiter) bucket(name string) *rate.Limiter {
	if name == "" {
		return nil
	}

	l.mu.RLock()
	lim, ok := l.buckets[name]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.buckets[name]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Limit(l.defaults.RequestsPerSecond), l.defaults.Burst)
	l.buckets[name] = lim
	return lim
}

// Wait blocks until both the global limiter and bucket admit a request, or
// ctx is done.
func (l *Limiter) Wait(ctx context.Context, bucket string) error {
	l.metrics.total.Add(1)
	start := time.Now()
	defer func() { l.metrics.waitNs.Add(int64(time.Since(start))) }()

	if err := l.global.Wait(ctx); err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	if lim := l.bucket(bucket); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			l.metrics.denied.Add(1)
			return err
		}
	}
	l.metrics.allowed.Add(1)
	return nil
}

// Metrics returns a snapshot of the limiter counters.
func (l *Limiter) Metrics() MetricsSnapshot {
	l.mu.RLock()
	n := len(l.buckets)
	l.mu.RUnlock()

	return MetricsSnapshot{
		TotalRequests:   l.metrics.total.Load(),
		AllowedRequests: l.metrics.allowed.Load(),
		DeniedRequests:  l.metrics.denied.Load(),
		TotalWait:       time.Duration(l.metrics.waitNs.Load()),
		BucketCount:     n,
	}
}

type MetricsSnapshot struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
	// TotalWait is the time callers spent blocked in Wait.
	TotalWait   time.Duration
	BucketCount int
}
