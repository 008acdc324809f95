package compliance

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

type robotsPolicy struct {
	disallowed []string
	allowed    []string
	fetchedAt  time.Time
}

// RobotsCache fetches and caches robots.txt per host, treating any fetch
// failure or 4xx/5xx response as "unrestricted" per RFC 9309.
type RobotsCache struct {
	userAgent string
	client    *http.Client

	mu       sync.RWMutex
	policies map[string]*robotsPolicy
}

// NewRobotsCache constructs a cache using userAgent both as the lookup
// identity and the HTTP client's User-Agent header.
func NewRobotsCache(userAgent string) *RobotsCache {
	return &RobotsCache{
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
		policies:  make(map[string]*robotsPolicy),
	}
}

// IsAllowed reports whether path is permitted by the cached (or freshly
// fetched) robots policy for rawURL's host.
func (c *RobotsCache) IsAllowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	policy := c.policyFor(u)
	path := u.Path
	if path == "" {
		path = "/"
	}

	longestAllow, longestDisallow := -1, -1
	for _, p := range policy.allowed {
		if strings.HasPrefix(path, p) && len(p) > longestAllow {
			longestAllow = len(p)
		}
	}
	for _, p := range policy.disallowed {
		if strings.HasPrefix(path, p) && len(p) > longestDisallow {
			longestDisallow = len(p)
		}
	}
	return longestDisallow <= longestAllow
}

func (c *RobotsCache) policyFor(u *url.URL) *robotsPolicy {
	host := u.Host
	c.mu.RLock()
	policy, ok := c.policies[host]
	c.mu.RUnlock()
	if ok {
		return policy
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if policy, ok := c.policies[host]; ok {
		return policy
	}

	policy = c.fetchRobots(u.Scheme, host)
	c.policies[host] = policy
	return policy
}

func (c *RobotsCache) fetchRobots(scheme, host string) *robotsPolicy {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return &robotsPolicy{fetchedAt: time.Now()}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &robotsPolicy{fetchedAt: time.Now()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &robotsPolicy{fetchedAt: time.Now()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &robotsPolicy{fetchedAt: time.Now()}
	}

	return parseRobotsTxt(string(body), c.userAgent)
}

func parseRobotsTxt(body, userAgent string) *robotsPolicy {
	policy := &robotsPolicy{fetchedAt: time.Now()}
	lines := strings.Split(body, "\n")

	relevant := false
	sawSpecific := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch key {
		case "user-agent":
			matches := value == "*" || strings.Contains(strings.ToLower(userAgent), strings.ToLower(value))
			if value != "*" && matches {
				sawSpecific = true
				relevant = true
			} else if value == "*" && !sawSpecific {
				relevant = true
			} else if value != "*" && !matches {
				relevant = false
			} else if !matches {
				relevant = false
			}
		case "disallow":
			if relevant && value != "" {
				policy.disallowed = append(policy.disallowed, value)
			}
		case "allow":
			if relevant && value != "" {
				policy.allowed = append(policy.allowed, value)
			}
		case "crawl-delay":
			_, _ = strconv.Atoi(value)
		}
	}
	return policy
}
