// Package planner is the optional LLM-backed navigation planner: given a
// live page, it proposes CSS selectors for the schedule container, the
// next-page control, and a load-more button, and flags an auth wall.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// Planner is gated by an API key and a cumulative spend cap, matching the
// "optional collaborator" design note: the core must work with Planner
// absent (common selectors only).
type Planner struct {
	apiKey      string
	endpoint    string
	model       string
	budgetCents int64
	spentCents  atomic.Int64

	client *http.Client
	logger *slog.Logger
}

// New constructs a Planner. It always returns a non-nil Planner, even for
// an empty apiKey; cmd/gymscraper checks the key before constructing and
// otherwise leaves its types.Planner interface nil.
func New(apiKey string, budgetCents int, logger *slog.Logger) *Planner {
	return &Planner{
		apiKey:      apiKey,
		endpoint:    "https://api.openai.com/v1",
		model:       "gpt-4o-mini",
		budgetCents: int64(budgetCents),
		client:      &http.Client{Timeout: 30 * time.Second},
		logger:      logger.With("component", "planner"),
	}
}

// costPerCallCents is a flat per-call estimate used against the budget
// cap; this repo does not meter actual token usage.
const costPerCallCents = 1

// PlanPage asks the LLM to propose selectors for page, described by its
// captured HTML. Implements types.Planner.
func (p *Planner) PlanPage(page types.BrowserPage) (types.Plan, error) {
	if p.spentCents.Load()+costPerCallCents > p.budgetCents {
		return types.Plan{}, fmt.Errorf("planner: cumulative budget of %d cents exhausted", p.budgetCents)
	}

	html, err := page.HTML()
	if err != nil {
		return types.Plan{}, fmt.Errorf("planner: read page html: %w", err)
	}
	if len(html) > 8000 {
		html = html[:8000]
	}

	prompt := fmt.Sprintf(`You are navigating a gym class schedule page. Given this HTML, return JSON with keys "schedule_selector", "next_button_selector", "load_more_selector" (CSS selectors, empty string if none), and "auth_wall_detected" (bool).

HTML:
%s`, html)

	raw, err := p.generate(context.Background(), prompt)
	if err != nil {
		return types.Plan{}, fmt.Errorf("planner: generate: %w", err)
	}
	p.spentCents.Add(costPerCallCents)

	var parsed struct {
		ScheduleSelector   string `json:"schedule_selector"`
		NextButtonSelector string `json:"next_button_selector"`
		LoadMoreSelector   string `json:"load_more_selector"`
		AuthWallDetected   bool   `json:"auth_wall_detected"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		p.logger.Warn("failed to parse planner response", "error", err)
		return types.Plan{}, nil
	}

	return types.Plan{
		ScheduleSelector:   parsed.ScheduleSelector,
		NextButtonSelector: parsed.NextButtonSelector,
		LoadMoreSelector:   parsed.LoadMoreSelector,
		AuthWallDetected:   parsed.AuthWallDetected,
	}, nil
}

func (p *Planner) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  400,
		"temperature": 0.0,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSON finds the first balanced JSON object in s.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return "{}"
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return "{}"
}
