// Package dayworker discovers date-parameterised API patterns by
// observing a page's own traffic, then replays them in parallel across a
// week of dates.
package dayworker

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usDateRe    = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	epochRe     = regexp.MustCompile(`^\d{10}(\d{3})?$`)
)

// matchesDate reports whether value looks like target's date under any of
// the three accepted shapes (ISO, US, epoch).
func matchesDate(value string, target time.Time) bool {
	switch {
	case isoDateRe.MatchString(value):
		return value == target.Format("2006-01-02")
	case usDateRe.MatchString(value):
		return value == target.Format("01/02/2006")
	case epochRe.MatchString(value):
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		var t time.Time
		if len(value) == 13 {
			t = time.UnixMilli(n)
		} else {
			t = time.Unix(n, 0)
		}
		return t.UTC().Format("2006-01-02") == target.UTC().Format("2006-01-02")
	}
	return false
}

// dateShape identifies which of the three shapes value used. The shape is
// not stored in a DayApiPattern: replay always substitutes ISO dates, and
// formatDate has no caller.
type dateShape int

const (
	shapeNone dateShape = iota
	shapeISO
	shapeUS
	shapeEpochSeconds
	shapeEpochMillis
)

func detectShape(value string) dateShape {
	switch {
	case isoDateRe.MatchString(value):
		return shapeISO
	case usDateRe.MatchString(value):
		return shapeUS
	case epochRe.MatchString(value) && len(value) == 13:
		return shapeEpochMillis
	case epochRe.MatchString(value):
		return shapeEpochSeconds
	}
	return shapeNone
}

func formatDate(t time.Time, shape dateShape) string {
	switch shape {
	case shapeISO:
		return t.Format("2006-01-02")
	case shapeUS:
		return t.Format("01/02/2006")
	case shapeEpochSeconds:
		return strconv.FormatInt(t.Unix(), 10)
	case shapeEpochMillis:
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format("2006-01-02")
	}
}

// excludedHeaders are stripped when copying a captured request's headers
// into a DayApiPattern template.
var excludedHeaders = map[string]struct{}{
	"host": {}, "content-length": {}, "transfer-encoding": {},
	"connection": {}, "cookie": {},
}

func isExcludedHeader(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := excludedHeaders[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "sec-fetch-")
}
