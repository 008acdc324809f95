package dayworker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/gymscraper/internal/compliance"
	"github.com/IshaanNene/gymscraper/internal/types"
)

// ReplayWeek substitutes {{date}} for each of 7 consecutive dates starting
// at weekStart and submits all 7 requests through limiter's API bucket
// (concurrency 3, burst of 5 then one every 2s). Dates are always
// substituted in ISO YYYY-MM-DD form. Partial success is acceptable;
// a pattern whose placeholder cannot be substituted is discarded entirely.
func ReplayWeek(ctx context.Context, pattern types.DayApiPattern, weekStart time.Time, cookieHeader string, limiter *compliance.HostLimiter) ([]types.DayReplayResult, error) {
	if !strings.Contains(pattern.UrlTemplate, "{{date}}") && !strings.Contains(pattern.BodyTemplate, "{{date}}") {
		return nil, types.ErrPatternDiscarded
	}

	results := make([]types.DayReplayResult, 7)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < 7; i++ {
		i := i
		date := weekStart.AddDate(0, 0, i)
		g.Go(func() error {
			release, err := limiter.WaitAPI(gctx)
			if err != nil {
				results[i] = types.DayReplayResult{Date: date.Format("2006-01-02"), Success: false, Err: err}
				return nil
			}
			defer release()

			result := replayOne(gctx, pattern, date, cookieHeader)
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func replayOne(ctx context.Context, pattern types.DayApiPattern, date time.Time, cookieHeader string) types.DayReplayResult {
	dateStr := date.Format("2006-01-02")
	reqURL := strings.ReplaceAll(pattern.UrlTemplate, "{{date}}", dateStr)
	var body io.Reader
	if pattern.BodyTemplate != "" {
		body = bytes.NewBufferString(strings.ReplaceAll(pattern.BodyTemplate, "{{date}}", dateStr))
	}

	method := pattern.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return types.DayReplayResult{Date: dateStr, Success: false, Err: fmt.Errorf("dayworker: build replay request: %w", err)}
	}
	for k, v := range pattern.Headers {
		req.Header.Set(k, v)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.DayReplayResult{Date: dateStr, Success: false, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	return types.DayReplayResult{
		Date:       dateStr,
		Success:    success,
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}
}
