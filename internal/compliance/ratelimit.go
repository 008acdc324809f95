package compliance

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter bundles the page limiter (concurrency 1, min interval
// rateLimitMs) and the API limiter (concurrency 3, token bucket of 5
// refilled at one token every 2s) for one host. The API limiter applies no
// separate minimum spacing: up to 5 buffered tokens can be taken back to
// back.
type HostLimiter struct {
	page *rate.Limiter

	apiLimiter *rate.Limiter
	apiSlots   chan struct{}
}

func newHostLimiter(rateLimitMs time.Duration) *HostLimiter {
	return &HostLimiter{
		page:       rate.NewLimiter(rate.Every(rateLimitMs), 1),
		apiLimiter: rate.NewLimiter(rate.Every(10*time.Second/5), 5),
		apiSlots:   make(chan struct{}, 3),
	}
}

// WaitPage blocks until the page limiter admits one caller.
func (h *HostLimiter) WaitPage(ctx context.Context) error {
	return h.page.Wait(ctx)
}

// WaitAPI blocks until both the concurrency cap (3) and the token bucket
// admit one caller, then returns a release func the caller must invoke
// when the request completes.
func (h *HostLimiter) WaitAPI(ctx context.Context) (release func(), err error) {
	select {
	case h.apiSlots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := h.apiLimiter.Wait(ctx); err != nil {
		<-h.apiSlots
		return nil, err
	}
	return func() { <-h.apiSlots }, nil
}

// RateLimiters is the process-wide registry of per-host HostLimiter
// instances, materialized lazily on first use and retained for the
// process lifetime.
type RateLimiters struct {
	rateLimitMs time.Duration

	mu    sync.Mutex
	hosts map[string]*HostLimiter
}

// NewRateLimiters constructs a registry using rateLimitMs as the page
// limiter's minimum interval.
func NewRateLimiters(rateLimitMs time.Duration) *RateLimiters {
	return &RateLimiters{rateLimitMs: rateLimitMs, hosts: make(map[string]*HostLimiter)}
}

// For returns (creating if necessary) the HostLimiter for host.
func (r *RateLimiters) For(host string) *HostLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	hl, ok := r.hosts[host]
	if !ok {
		hl = newHostLimiter(r.rateLimitMs)
		r.hosts[host] = hl
	}
	return hl
}
