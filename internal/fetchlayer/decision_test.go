package fetchlayer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/gymscraper/internal/types"
)

type fakeContext struct{ disposed bool }

func (f *fakeContext) Dispose() error { f.disposed = true; return nil }

type fakeBrowserPage struct{ html string }

func (f *fakeBrowserPage) HTML() (string, error) { return f.html, nil }
func (f *fakeBrowserPage) URL() string           { return "" }
func (f *fakeBrowserPage) ClickHumanlike(string) error { return nil }
func (f *fakeBrowserPage) HasSelector(string) (bool, error) { return false, nil }
func (f *fakeBrowserPage) TypeInto(string, string, func(rune) time.Duration) error { return nil }
func (f *fakeBrowserPage) Navigate(string) error { return nil }
func (f *fakeBrowserPage) Cookies() ([]byte, error) { return nil, nil }
func (f *fakeBrowserPage) SetCookies([]byte) error { return nil }

type fakePool struct {
	calls int
	page  *fakeBrowserPage
	ctx   *fakeContext
}

func (p *fakePool) BorrowPage(ctx context.Context) (types.BrowserPage, types.BrowserContext, error) {
	p.calls++
	return p.page, p.ctx, nil
}

func TestFetch_LightAcceptedWhenTokensPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Monday 6:00 PM Yoga"))
	}))
	defer srv.Close()

	pool := &fakePool{}
	layer := New(pool, "testbot", 5*time.Second)
	result, err := layer.Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.Equal(t, types.FetchMethodLight, result.Method)
	assert.Equal(t, 0, pool.calls)
}

func TestFetch_FallsBackToBrowserWithoutTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div id="root"></div>`))
	}))
	defer srv.Close()

	pool := &fakePool{page: &fakeBrowserPage{html: "<div>rendered</div>"}, ctx: &fakeContext{}}
	layer := New(pool, "testbot", 5*time.Second)
	result, err := layer.Fetch(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.Equal(t, types.FetchMethodBrowser, result.Method)
	assert.Equal(t, 1, pool.calls)
}

func TestFetch_PaywallNoFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(402)
	}))
	defer srv.Close()

	pool := &fakePool{}
	layer := New(pool, "testbot", 5*time.Second)
	_, err := layer.Fetch(context.Background(), srv.URL, Options{})
	require.Error(t, err)
	var paywallErr *types.PaywallError
	require.ErrorAs(t, err, &paywallErr)
	assert.Equal(t, 0, pool.calls)
}

func TestFetch_ForceBrowserSkipsLight(t *testing.T) {
	pool := &fakePool{page: &fakeBrowserPage{html: "rendered"}, ctx: &fakeContext{}}
	layer := New(pool, "testbot", 5*time.Second)
	result, err := layer.Fetch(context.Background(), "https://unused.test", Options{ForceBrowser: true})
	require.NoError(t, err)
	assert.Equal(t, types.FetchMethodBrowser, result.Method)
	assert.Equal(t, 1, pool.calls)
}
