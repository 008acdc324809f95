// Package validator cross-checks extracted schedule data against
// independent page signals and emits a confidence score plus a retry hint.
package validator

import (
	"github.com/IshaanNene/gymscraper/internal/types"
)

// Validate runs the five independent checks against result, optionally
// using page (live DOM) and rawHTML when available. When page is nil, the
// pagination-state check is skipped and the auth-wall check runs on
// rawHTML (if non-empty).
func Validate(result types.ScrapeResult, page types.BrowserPage, rawHTML string) types.ValidatorReport {
	var checks []types.CheckOutcome

	checks = append(checks, countPlausibility(result.Classes))
	checks = append(checks, contentCoherence(result.Classes))
	checks = append(checks, duplicateRatio(result.Classes))

	if page != nil {
		html, err := page.HTML()
		if err != nil {
			html = rawHTML
		}
		checks = append(checks, paginationState(html))
		checks = append(checks, authWall(html))
	} else if rawHTML != "" {
		checks = append(checks, authWall(rawHTML))
	}

	confidence := 1.0
	var signals []string
	hint := types.RetryHintNone
	for _, c := range checks {
		confidence *= c.Factor
		if c.Signal != "" {
			signals = append(signals, c.Signal)
		}
		if hint == types.RetryHintNone && c.Hint != types.RetryHintNone {
			hint = c.Hint
		}
	}

	return types.ValidatorReport{
		Valid:      confidence >= 0.5,
		Confidence: confidence,
		Signals:    signals,
		RetryHint:  hint,
		Checks:     checks,
	}
}
