package orchestrator

import (
	"strings"

	"github.com/IshaanNene/gymscraper/internal/extractor"
	"github.com/IshaanNene/gymscraper/internal/types"
)

// scraperRule pairs a substring signature set with a factory constructing
// the types.Extractor to use when any signature matches the page body.
// Rules are evaluated in priority order; the last rule in defaultRules has
// an empty signature set and always matches, serving as the fixed
// fallback. This is the "avoid dynamic reflection" dispatch shape: a plain
// linear list, no plugin registry.
type scraperRule struct {
	name       string
	signatures []string
	factory    func() types.Extractor
}

var defaultRules = []scraperRule{
	{
		name:       "generic",
		signatures: nil,
		factory:    func() types.Extractor { return extractor.New() },
	},
}

// selectExtractor returns the first rule whose signature set matches body
// (case-insensitive substring), or the fixed fallback if none do.
func selectExtractor(body string) types.Extractor {
	lower := strings.ToLower(body)
	for _, rule := range defaultRules {
		if len(rule.signatures) == 0 {
			continue
		}
		for _, sig := range rule.signatures {
			if strings.Contains(lower, strings.ToLower(sig)) {
				return rule.factory()
			}
		}
	}
	return defaultRules[len(defaultRules)-1].factory()
}
