package validator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/gymscraper/internal/types"
)

func neutral(name string) types.CheckOutcome {
	return types.CheckOutcome{Name: name, Factor: 1.0}
}

func countPlausibility(classes []types.Class) types.CheckOutcome {
	switch n := len(classes); {
	case n == 0:
		return types.CheckOutcome{Name: "count-plausibility", Factor: 0.1, Signal: "zero classes extracted", Hint: types.RetryHintWaitLonger}
	case n < 3:
		return types.CheckOutcome{Name: "count-plausibility", Factor: 0.5, Signal: "fewer than 3 classes extracted", Hint: types.RetryHintPaginateForward}
	default:
		return neutral("count-plausibility")
	}
}

var coherenceBadChars = "<>{}[]\\"

func contentCoherence(classes []types.Class) types.CheckOutcome {
	if len(classes) == 0 {
		return neutral("content-coherence")
	}
	bad := 0
	for _, c := range classes {
		if strings.ContainsAny(c.Name, coherenceBadChars) {
			bad++
		}
	}
	if bad == 0 {
		return neutral("content-coherence")
	}
	ratio := float64(bad) / float64(len(classes))
	if ratio > 0.3 {
		return types.CheckOutcome{Name: "content-coherence", Factor: 0.2, Signal: "over 30% of class names contain markup-like characters", Hint: types.RetryHintSwitchToBrowser}
	}
	return types.CheckOutcome{Name: "content-coherence", Factor: 0.7, Signal: "some class names contain markup-like characters"}
}

func duplicateRatio(classes []types.Class) types.CheckOutcome {
	if len(classes) == 0 {
		return neutral("duplicate-ratio")
	}
	seen := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		key := c.Name + "|" + c.StartInstantUtc.String()
		seen[key] = struct{}{}
	}
	ratio := float64(len(seen)) / float64(len(classes))
	switch {
	case ratio < 0.3:
		return types.CheckOutcome{Name: "duplicate-ratio", Factor: 0.2, Signal: "unique (name,start) ratio below 0.3", Hint: types.RetryHintWaitLonger}
	case ratio < 0.5:
		return types.CheckOutcome{Name: "duplicate-ratio", Factor: 0.6, Signal: "unique (name,start) ratio below 0.5"}
	default:
		return neutral("duplicate-ratio")
	}
}

var paginationWords = []string{"next", "forward", "tomorrow", "next day", "next week", "→", "›", "»"}

func paginationState(html string) types.CheckOutcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return neutral("pagination-state")
	}
	matched := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if _, disabled := s.Attr("disabled"); disabled {
			return true
		}
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		aria, _ := s.Attr("aria-label")
		title, _ := s.Attr("title")
		haystack := text + " " + strings.ToLower(aria) + " " + strings.ToLower(title)
		for _, w := range paginationWords {
			if strings.Contains(haystack, w) {
				matched = true
				return false
			}
		}
		return true
	})
	if matched {
		return types.CheckOutcome{Name: "pagination-state", Factor: 0.7, Signal: "enabled pagination control detected", Hint: types.RetryHintPaginateForward}
	}
	return neutral("pagination-state")
}

var authWallPhrases = []string{"sign in", "log in", "enter your password", "authentication required"}

func authWall(html string) types.CheckOutcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil && doc.Find("input[type=password]").Length() > 0 {
		return types.CheckOutcome{Name: "auth-wall", Factor: 0.1, Signal: "password input present", Hint: types.RetryHintReAuthenticate}
	}

	lower := strings.ToLower(html)
	count := 0
	for _, phrase := range authWallPhrases {
		if strings.Contains(lower, phrase) {
			count++
		}
	}
	if count >= 2 {
		return types.CheckOutcome{Name: "auth-wall", Factor: 0.4, Signal: "multiple auth-wall phrases present", Hint: types.RetryHintReAuthenticate}
	}
	return neutral("auth-wall")
}
