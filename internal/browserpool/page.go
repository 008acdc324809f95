package browserpool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// pageHandle adapts a *rod.Page to types.BrowserPage.
type pageHandle struct {
	page *rod.Page
}

func (h *pageHandle) HTML() (string, error) { return h.page.HTML() }

func (h *pageHandle) URL() string {
	info, err := h.page.Info()
	if err != nil || info == nil {
		return ""
	}
	return info.URL
}

// ClickHumanlike moves the mouse to the element before clicking, matching
// the teacher's human-like-delay interaction pattern.
func (h *pageHandle) ClickHumanlike(selector string) error {
	el, err := h.page.Element(selector)
	if err != nil {
		return fmt.Errorf("browserpool: locate %q: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("browserpool: scroll to %q: %w", selector, err)
	}
	time.Sleep(100 * time.Millisecond)
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (h *pageHandle) HasSelector(selector string) (bool, error) {
	el, err := h.page.Timeout(500 * time.Millisecond).Element(selector)
	if err != nil {
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil {
		return false, err
	}
	return visible, nil
}

func (h *pageHandle) TypeInto(selector, text string, delayFor func(r rune) time.Duration) error {
	el, err := h.page.Element(selector)
	if err != nil {
		return fmt.Errorf("browserpool: locate %q: %w", selector, err)
	}
	for _, r := range text {
		if err := el.Input(string(r)); err != nil {
			return fmt.Errorf("browserpool: type into %q: %w", selector, err)
		}
		time.Sleep(delayFor(r))
	}
	return nil
}

// Navigate performs the full browser-path navigation sequence: goto,
// networkidle wait, 1s settle, and the idle behavior (cursor drifts +
// optional scroll + pause).
func (h *pageHandle) Navigate(rawURL string) error {
	if err := h.page.Timeout(30 * time.Second).Navigate(rawURL); err != nil {
		return fmt.Errorf("browserpool: navigate to %q: %w", rawURL, err)
	}
	waitNetworkIdle(h.page, 30*time.Second)
	time.Sleep(time.Second)
	idleBehavior(h.page)
	return nil
}

func (h *pageHandle) Cookies() ([]byte, error) {
	cookies, err := h.page.Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("browserpool: read cookies: %w", err)
	}
	return json.Marshal(cookies)
}

func (h *pageHandle) SetCookies(raw []byte) error {
	var cookies []*proto.NetworkCookieParam
	if err := json.Unmarshal(raw, &cookies); err != nil {
		return fmt.Errorf("browserpool: decode cookies: %w", err)
	}
	return h.page.SetCookies(cookies)
}

// UnwrapRod exposes the underlying *rod.Page for collaborators (the
// day-worker pool's request interception) that need the raw go-rod API
// beyond the narrow types.BrowserPage interface. ok is false when page
// was not produced by this pool (e.g. a test fake).
func UnwrapRod(page types.BrowserPage) (rodPage *rod.Page, ok bool) {
	h, ok := page.(*pageHandle)
	if !ok {
		return nil, false
	}
	return h.page, true
}

// pageContext is the disposal half of the page-borrowing interface.
type pageContext struct {
	page *rod.Page
}

func (c *pageContext) Dispose() error {
	return c.page.Close()
}
