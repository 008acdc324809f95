// Package fetchlayer implements the two-path fetch: a light, TLS-
// impersonating HTTP request and a managed-browser fallback, chosen by
// the decision rule in spec.md §4.3.
package fetchlayer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IshaanNene/gymscraper/internal/compliance"
	"github.com/IshaanNene/gymscraper/internal/normalize"
	"github.com/IshaanNene/gymscraper/internal/types"
)

// BrowserBorrower is the narrow interface the fetch layer needs from the
// browser pool: borrow an instrumented page and the scoped context that
// disposes it.
type BrowserBorrower interface {
	BorrowPage(ctx context.Context) (types.BrowserPage, types.BrowserContext, error)
}

// Options alters a fetch attempt, derived by the orchestrator from a
// validator retry hint.
type Options struct {
	ForceBrowser bool
	ExtraSettle  time.Duration
	Timeout      time.Duration
}

// Layer bundles the light client and browser pool behind one Fetch entry
// point.
type Layer struct {
	pool      BrowserBorrower
	userAgent string

	defaultTimeout time.Duration
}

// New constructs a Layer. pool may be nil if only the light path will ever
// be exercised (tests, or sites with no SPA fallback need).
func New(pool BrowserBorrower, userAgent string, defaultTimeout time.Duration) *Layer {
	return &Layer{pool: pool, userAgent: userAgent, defaultTimeout: defaultTimeout}
}

// Fetch applies the decision rule: unless forced, try light first; accept
// a light 200 response containing both a time-like token and a day-name
// token; treat 402 as a paywall with no fallback; fall back to the
// browser path on any other status or transport error.
func (l *Layer) Fetch(ctx context.Context, rawURL string, opts Options) (types.FetchResult, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = l.defaultTimeout
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	if !opts.ForceBrowser {
		client := newLightClient(timeout)
		lightCtx, cancel := context.WithTimeout(ctx, timeout)
		body, status, _, err := lightFetch(lightCtx, client, rawURL, l.userAgent)
		cancel()

		if err == nil {
			if compliance.IsPaywall(status) {
				return types.FetchResult{StatusCode: status, Method: types.FetchMethodLight}, &types.PaywallError{URL: rawURL}
			}
			if status == http.StatusOK && normalize.HasTimeToken(string(body)) && normalize.HasDayToken(string(body)) {
				return types.FetchResult{Body: body, StatusCode: status, Method: types.FetchMethodLight}, nil
			}
		}
	}

	if l.pool == nil {
		return types.FetchResult{}, fmt.Errorf("fetchlayer: browser path required but no browser pool configured")
	}
	return browserFetch(ctx, l.pool, rawURL, opts.ExtraSettle)
}
