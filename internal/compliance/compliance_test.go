package compliance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPaywallAndAuthWall(t *testing.T) {
	assert.True(t, IsPaywall(402))
	assert.False(t, IsPaywall(401))
	assert.True(t, IsAuthWall(401))
	assert.True(t, IsAuthWall(403))
	assert.False(t, IsAuthWall(404))
}

func TestRobotsCache_FailOpenOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache := NewRobotsCache("testbot")
	assert.True(t, cache.IsAllowed(srv.URL+"/private"))
}

func TestRobotsCache_DisallowRespected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := NewRobotsCache("testbot")
	assert.False(t, cache.IsAllowed(srv.URL+"/private/page"))
	assert.True(t, cache.IsAllowed(srv.URL+"/public"))
}

func TestHostLimiter_PageSerializes(t *testing.T) {
	hl := newHostLimiter(10 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, hl.WaitPage(ctx))
	start := time.Now()
	require.NoError(t, hl.WaitPage(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestHostLimiter_APIConcurrencyCap(t *testing.T) {
	hl := newHostLimiter(time.Millisecond)
	ctx := context.Background()

	var releases []func()
	for i := 0; i < 3; i++ {
		release, err := hl.WaitAPI(ctx)
		require.NoError(t, err)
		releases = append(releases, release)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err := hl.WaitAPI(ctxTimeout)
	assert.Error(t, err, "fourth concurrent caller should block past the 3-slot cap")

	for _, r := range releases {
		r()
	}
}
