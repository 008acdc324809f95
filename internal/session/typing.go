package session

import (
	"math"
	"math/rand/v2"
	"time"
	"unicode"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// interKeyDelay draws from a Gaussian N(80ms, 30ms) clamped to
// [20ms, 500ms], approximated with a Box-Muller transform since
// math/rand/v2 has no built-in normal distribution. No pack example ships
// a typing-delay generator, so this stays on the standard library by
// necessity rather than preference (see DESIGN.md).
func interKeyDelay() time.Duration {
	const mean, stddev = 80.0, 30.0
	u1, u2 := rand.Float64(), rand.Float64()
	if u1 == 0 {
		u1 = 1e-9
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	ms := mean + stddev*z
	if ms < 20 {
		ms = 20
	}
	if ms > 500 {
		ms = 500
	}
	return time.Duration(ms) * time.Millisecond
}

// delayFor combines the base Gaussian inter-key delay with an extra pause
// around spaces and capitalized letters.
func delayFor(r rune) time.Duration {
	extra := time.Duration(0)
	if r == ' ' {
		extra = 120 * time.Millisecond
	} else if unicode.IsUpper(r) {
		extra = 60 * time.Millisecond
	}
	return interKeyDelay() + extra
}

// TypeHumanlike sends text into page's selector with Gaussian inter-key
// delays and extra pauses around spaces/capitals.
func TypeHumanlike(page types.BrowserPage, selector, text string) error {
	return page.TypeInto(selector, text, delayFor)
}
