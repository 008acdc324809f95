// Package compliance is the gate every fetch passes through before it
// touches the network: robots policy, per-host rate limiting, and
// paywall/auth-wall status classification.
package compliance

import (
	"context"
	"net/url"
	"time"
)

// Gate combines the robots cache and the rate limiter registry behind the
// four operations spec.md §4.1 names.
type Gate struct {
	robots   *RobotsCache
	limiters *RateLimiters
}

// New constructs a Gate. userAgent identifies the bot to robots.txt and
// rateLimitMs is the page limiter's minimum interval.
func New(userAgent string, rateLimitMs time.Duration) *Gate {
	return &Gate{
		robots:   NewRobotsCache(userAgent),
		limiters: NewRateLimiters(rateLimitMs),
	}
}

// IsAllowed reports whether rawURL is permitted by the host's robots policy.
func (g *Gate) IsAllowed(rawURL string) bool {
	return g.robots.IsAllowed(rawURL)
}

// IsPaywall reports whether status indicates a paywall (402).
func IsPaywall(status int) bool { return status == 402 }

// IsAuthWall reports whether status indicates an auth wall (401 or 403).
func IsAuthWall(status int) bool { return status == 401 || status == 403 }

// RateLimiterFor returns the per-host limiter bundle for rawURL's host,
// materializing it lazily on first use.
func (g *Gate) RateLimiterFor(rawURL string) *HostLimiter {
	host := hostOf(rawURL)
	return g.limiters.For(host)
}

// WaitPage blocks the caller on the page limiter for rawURL's host.
func (g *Gate) WaitPage(ctx context.Context, rawURL string) error {
	return g.RateLimiterFor(rawURL).WaitPage(ctx)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
