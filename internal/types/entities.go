// Package types holds the entity shapes, result types, and error kinds
// shared across the scraping pipeline.
package types

import "time"

// Organization identifies a gym operator. Identity is anchored on WebsiteUrl.
type Organization struct {
	Name       string
	WebsiteUrl string
}

// Location is a single gym site belonging to an Organization. Identity under
// an organization is Name.
type Location struct {
	OrganizationRef string
	Name            string
	Address         string
	IanaTimezone    string
}

// Class is a single scheduled session at a Location. Identity under a
// location is (StartInstantUtc, Name).
type Class struct {
	LocationRef     string
	Name            string
	StartInstantUtc time.Time
	EndInstantUtc   *time.Time
	Instructor      string
	SpotsTotal      *int

	// RawTimeText preserves the unparsed local-time string so a
	// normalization warning can reference what failed to parse.
	RawTimeText string
}

// HasValidStart reports whether the class carries a resolved UTC start
// instant, which invariant 1 requires for persistence.
func (c *Class) HasValidStart() bool {
	return !c.StartInstantUtc.IsZero()
}

// ScrapeResult is the raw output of an extractor for one page.
type ScrapeResult struct {
	Organization Organization
	Locations    []Location
	Classes      []Class

	// FetchedAt records when the fetch producing this result completed.
	FetchedAt time.Time
}

// FetchMethod identifies which fetch path produced a FetchResult.
type FetchMethod string

const (
	FetchMethodLight   FetchMethod = "light"
	FetchMethodBrowser FetchMethod = "browser"
)

// BrowserPage is the narrow interface the core needs from a live,
// instrumented browser page: enough to re-capture rendered HTML and to
// perform the single human-like interaction the orchestrator may need
// (clicking a "load more" control) without depending on the browser engine
// package directly.
type BrowserPage interface {
	HTML() (string, error)
	URL() string
	ClickHumanlike(selector string) error

	// HasSelector reports whether the first element matching a CSS
	// selector on the current page is visible.
	HasSelector(selector string) (bool, error)
	// TypeInto sends characters to the element matched by selector, one
	// rune at a time, sleeping for delayFor(r) after each keystroke.
	TypeInto(selector string, text string, delayFor func(r rune) time.Duration) error
	// Navigate loads rawURL in this page's context.
	Navigate(rawURL string) error
	// Cookies returns the page's current cookie jar serialized as JSON.
	Cookies() ([]byte, error)
	// SetCookies restores a previously serialized cookie jar.
	SetCookies(raw []byte) error
}

// BrowserContext is the disposal half of the page-borrowing interface.
// The caller of a forced-browser fetch owns calling Dispose once it is
// done with the associated BrowserPage.
type BrowserContext interface {
	Dispose() error
}

// FetchResult is the outcome of a single fetch attempt. When Method is
// FetchMethodBrowser, PageHandle and ContextHandle are both populated and
// the caller owns disposing ContextHandle.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Method     FetchMethod

	PageHandle    BrowserPage
	ContextHandle BrowserContext
}

// RetryHint is a compact enum the validator emits to direct a single
// orchestrator retry.
type RetryHint string

const (
	RetryHintNone             RetryHint = ""
	RetryHintPaginateForward  RetryHint = "paginate-forward"
	RetryHintWaitLonger       RetryHint = "wait-longer"
	RetryHintSwitchToBrowser  RetryHint = "switch-to-browser"
	RetryHintReAuthenticate   RetryHint = "re-authenticate"
)

// CheckOutcome is one of the validator's independent check results.
type CheckOutcome struct {
	Name   string
	Factor float64
	Signal string
	Hint   RetryHint
}

// ValidatorReport is the result of running the validator over a ScrapeResult.
type ValidatorReport struct {
	Valid      bool
	Confidence float64
	Signals    []string
	RetryHint  RetryHint
	Checks     []CheckOutcome
}

// DayApiPattern is a date-parameterised request template discovered by
// observing a page's own traffic.
type DayApiPattern struct {
	UrlTemplate  string
	Method       string
	DateParam    string
	BodyTemplate string
	Headers      map[string]string
}

// Planner is the narrow interface to the external LLM navigation planner.
type Planner interface {
	PlanPage(page BrowserPage) (Plan, error)
}

// UpsertSink is the narrow interface to the external persistence layer.
type UpsertSink interface {
	UpsertOrganization(org Organization) (string, error)
	UpsertLocations(orgRef string, locations []Location) (map[string]string, error)
	UpsertClasses(classes []Class) (int, error)
}

// Extractor is the narrow interface to an HTML-to-entity parser.
type Extractor interface {
	Extract(html string, url string) (ScrapeResult, error)
}

// Plan is the LLM navigation planner's output for one page.
type Plan struct {
	ScheduleSelector  string
	NextButtonSelector string
	LoadMoreSelector  string
	AuthWallDetected  bool
}

// SessionState describes the session manager's belief about authentication.
type SessionState string

const (
	SessionLoggedIn  SessionState = "logged-in"
	SessionLoggedOut SessionState = "logged-out"
	SessionUnknown   SessionState = "unknown"
)

// DayReplayResult is the outcome of replaying one day's worth of a
// DayApiPattern during parallel expansion.
type DayReplayResult struct {
	Date       string
	Success    bool
	StatusCode int
	Body       []byte
	Err        error
}

// RunResult is what the orchestrator returns for a completed URL run.
type RunResult struct {
	RunID           string
	OrganizationRef string
	LocationRefs    map[string]string
	ClassesUpserted int
	Warnings        []string
}
