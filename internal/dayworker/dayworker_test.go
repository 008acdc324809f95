package dayworker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/gymscraper/internal/compliance"
	"github.com/IshaanNene/gymscraper/internal/types"
)

func TestMatchesDate_AllShapes(t *testing.T) {
	ref := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	assert.True(t, matchesDate("2026-02-09", ref))
	assert.True(t, matchesDate("02/09/2026", ref))
	assert.True(t, matchesDate("1770595200", ref))
	assert.False(t, matchesDate("2026-03-01", ref))
}

func TestReplayWeek_ParallelReplayAllSucceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	pattern := types.DayApiPattern{
		UrlTemplate: srv.URL + "/api/schedule?date={{date}}",
		Method:      http.MethodGet,
	}
	limiter := compliance.NewRateLimiters(time.Millisecond).For("x.test")

	start := time.Now()
	weekStart := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	results, err := ReplayWeek(context.Background(), pattern, weekStart, "", limiter)
	require.NoError(t, err)
	require.Len(t, results, 7)
	for _, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, 200, r.StatusCode)
	}
	_ = start
}

func TestReplayWeek_DiscardsUnsubstitutablePattern(t *testing.T) {
	limiter := compliance.NewRateLimiters(time.Millisecond).For("x.test")
	_, err := ReplayWeek(context.Background(), types.DayApiPattern{UrlTemplate: "https://x.test/no-placeholder"}, time.Now(), "", limiter)
	assert.ErrorIs(t, err, types.ErrPatternDiscarded)
}
