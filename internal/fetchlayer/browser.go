package fetchlayer

import (
	"context"
	"fmt"
	"time"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// browserFetch borrows a page, navigates (the pool's Navigate
// implementation performs the networkidle wait and idle behavior
// sequence), waits for late-render widgets, and captures rendered HTML.
// The caller owns disposing the returned ContextHandle.
func browserFetch(ctx context.Context, pool BrowserBorrower, rawURL string, extraSettle time.Duration) (types.FetchResult, error) {
	page, bctx, err := pool.BorrowPage(ctx)
	if err != nil {
		return types.FetchResult{}, fmt.Errorf("fetchlayer: borrow page: %w", err)
	}

	if err := page.Navigate(rawURL); err != nil {
		bctx.Dispose()
		return types.FetchResult{}, fmt.Errorf("fetchlayer: navigate: %w", err)
	}

	time.Sleep(time.Second + extraSettle)

	html, err := page.HTML()
	if err != nil {
		bctx.Dispose()
		return types.FetchResult{}, fmt.Errorf("fetchlayer: capture html: %w", err)
	}

	return types.FetchResult{
		Body:          []byte(html),
		StatusCode:    200,
		Method:        types.FetchMethodBrowser,
		PageHandle:    page,
		ContextHandle: bctx,
	}, nil
}
