// Package browserpool is the concrete go-rod-backed browser engine: a
// singleton launch, page borrowing with fingerprint shims, and the
// networkidle/idle-behavior navigation sequence the fetch layer and
// session manager rely on.
package browserpool

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/gymscraper/internal/session"
	"github.com/IshaanNene/gymscraper/internal/types"
)

// Pool is a singleton headless-browser engine. A single rod.Browser is
// reused across borrows; engine startup is serialized by sync.Once.
type Pool struct {
	userAgent string
	sessions  *session.Manager
	logger    *slog.Logger

	once    sync.Once
	launchErr error
	browser *rod.Browser
}

// New constructs a Pool. sessionMgr may be nil when login-wall monitoring
// and cookie preload are not needed (e.g. discovery-only runs).
func New(userAgent string, sessionMgr *session.Manager, logger *slog.Logger) *Pool {
	return &Pool{userAgent: userAgent, sessions: sessionMgr, logger: logger.With("component", "browserpool")}
}

func (p *Pool) ensureLaunched() error {
	p.once.Do(func() {
		l := launcher.New().
			Headless(true).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("no-sandbox").
			Set("disable-blink-features", "AutomationControlled")

		launchURL, err := l.Launch()
		if err != nil {
			p.launchErr = fmt.Errorf("browserpool: launch: %w", err)
			return
		}
		browser := rod.New().ControlURL(launchURL)
		if err := browser.Connect(); err != nil {
			p.launchErr = fmt.Errorf("browserpool: connect: %w", err)
			return
		}
		p.browser = browser

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			p.Close()
		}()
	})
	return p.launchErr
}

// BorrowPage creates a new stealth-patched page and returns it plus the
// disposal handle. Implements fetchlayer.BrowserBorrower.
func (p *Pool) BorrowPage(ctx context.Context) (types.BrowserPage, types.BrowserContext, error) {
	if err := p.ensureLaunched(); err != nil {
		return nil, nil, err
	}

	rodPage, err := stealth.Page(p.browser)
	if err != nil {
		return nil, nil, fmt.Errorf("browserpool: stealth page: %w", err)
	}

	if ua := p.userAgent; ua != "" {
		_ = rodPage.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua})
	}
	_ = rodPage.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1366, Height: 768})

	if p.sessions != nil {
		if err := p.sessions.PreloadCookies(&pageHandle{page: rodPage}); err != nil {
			p.logger.Warn("cookie preload failed", "error", err)
		}
		go rodPage.EachEvent(func(e *proto.NetworkResponseReceived) {
			location := ""
			if v, ok := e.Response.Headers["Location"]; ok {
				location = v.Str()
			} else if v, ok := e.Response.Headers["location"]; ok {
				location = v.Str()
			}
			p.sessions.OnResponse(e.Response.Status, location)
		})()
	}

	handle := &pageHandle{page: rodPage}
	return handle, &pageContext{page: rodPage}, nil
}

// WithPage borrows a page, invokes fn, and disposes the page regardless of
// fn's outcome — the guaranteed-release idiom for callers that don't need
// the live page afterward.
func (p *Pool) WithPage(ctx context.Context, fn func(types.BrowserPage) error) error {
	page, bctx, err := p.BorrowPage(ctx)
	if err != nil {
		return err
	}
	defer bctx.Dispose()
	return fn(page)
}

// Close shuts down the browser engine.
func (p *Pool) Close() error {
	if p.browser != nil {
		return p.browser.Close()
	}
	return nil
}

// idleBehavior performs 2-4 cursor drifts, an optional gentle scroll, and
// a 0.5-1.5s pause, mimicking a human settling on a page before reading it.
func idleBehavior(page *rod.Page) {
	drifts := 2 + rand.IntN(3)
	for i := 0; i < drifts; i++ {
		x, y := 100+rand.Float64()*800, 100+rand.Float64()*500
		_ = page.Mouse.MoveTo(proto.Point{X: x, Y: y})
		time.Sleep(time.Duration(50+rand.IntN(150)) * time.Millisecond)
	}
	if rand.IntN(2) == 0 {
		_ = page.Mouse.Scroll(0, 200+rand.Float64()*300, 1)
	}
	time.Sleep(time.Duration(500+rand.IntN(1000)) * time.Millisecond)
}

// waitNetworkIdle blocks until at most 2 requests have been in-flight for
// 500ms, bounded by a 30s hard cap.
func waitNetworkIdle(page *rod.Page, hardCap time.Duration) {
	deadline := time.Now().Add(hardCap)
	inFlight := 0
	var mu sync.Mutex

	stop := page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) { mu.Lock(); inFlight++; mu.Unlock() },
		func(e *proto.NetworkLoadingFinished) { mu.Lock(); if inFlight > 0 { inFlight-- }; mu.Unlock() },
		func(e *proto.NetworkLoadingFailed) { mu.Lock(); if inFlight > 0 { inFlight-- }; mu.Unlock() },
	)
	defer stop()

	quietSince := time.Now()
	for time.Now().Before(deadline) {
		mu.Lock()
		n := inFlight
		mu.Unlock()
		if n <= 2 {
			if time.Since(quietSince) >= 500*time.Millisecond {
				return
			}
		} else {
			quietSince = time.Now()
		}
		time.Sleep(50 * time.Millisecond)
	}
}
