package session

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// Credentials holds the login secrets spec.md §6 names.
type Credentials struct {
	Username   string
	Password   string
	TOTPSecret string
}

var usernameSelectors = []string{
	"input[name=username]", "input[name=email]", "input[type=email]",
	"#username", "#email",
}

var passwordSelectors = []string{
	"input[type=password]", "#password", "input[name=password]",
}

var submitSelectors = []string{
	"button[type=submit]", "input[type=submit]", "#login-submit", "#submit",
}

var logoutRedirectPaths = []string{"/login", "/signin", "/auth", "/sso"}

// Manager tracks SessionState and the login flow behind the Gate.
type Manager struct {
	creds     Credentials
	planner   types.Planner
	cookieDir string
	cookieTTL time.Duration

	mu    sync.RWMutex
	state types.SessionState

	gate            *Gate
	loginInProgress atomic.Bool
}

// NewManager constructs a Manager. planner may be nil (common selectors
// only, per the "core must function correctly when the planner is absent"
// design note).
func NewManager(creds Credentials, planner types.Planner, cookieDir string, cookieTTL time.Duration) *Manager {
	return &Manager{
		creds:     creds,
		planner:   planner,
		cookieDir: cookieDir,
		cookieTTL: cookieTTL,
		state:     types.SessionUnknown,
		gate:      NewGate(),
	}
}

// Gate returns the shared latch every fetch stage awaits.
func (m *Manager) Gate() *Gate { return m.gate }

// State returns the manager's current belief about authentication.
func (m *Manager) State() types.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s types.SessionState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// OnResponse is the response listener attached to every created page. It
// closes the gate on a 401/403 or a 3xx whose Location header points to a
// login-shaped path.
func (m *Manager) OnResponse(statusCode int, locationHeader string) {
	if statusCode == 401 || statusCode == 403 {
		m.triggerGateClose()
		return
	}
	if statusCode >= 300 && statusCode < 400 && locationHeader != "" {
		lower := strings.ToLower(locationHeader)
		for _, p := range logoutRedirectPaths {
			if strings.Contains(lower, p) {
				m.triggerGateClose()
				return
			}
		}
	}
}

func (m *Manager) triggerGateClose() {
	m.setState(types.SessionLoggedOut)
	m.gate.Close()
}

// CheckForLoginWall runs after a navigation, per spec.md's
// checkForLoginWall(page) post-load probe: a visible password input
// closes the gate.
func (m *Manager) CheckForLoginWall(page types.BrowserPage) (bool, error) {
	found, err := page.HasSelector("input[type=password]")
	if err != nil {
		return false, err
	}
	if found {
		m.triggerGateClose()
	}
	return found, nil
}

// Login runs the login flow against page: locate username/password/submit
// by the prioritized selector list, falling back to the planner; enter
// credentials with human-like pacing; submit; handle an optional TOTP
// challenge; verify success. Up to 2 attempts. Guarded by loginInProgress
// so concurrent callers never start a second re-authentication task
// (re-authentication does not itself park on the gate).
func (m *Manager) Login(page types.BrowserPage, fetchHTML func() (string, error)) error {
	if !m.loginInProgress.CompareAndSwap(false, true) {
		return nil // another caller's attempt is already in flight
	}
	defer m.loginInProgress.Store(false)

	var lastErr error
	const maxAttempts = 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := m.attemptLogin(page, fetchHTML); err != nil {
			lastErr = err
			continue
		}
		m.setState(types.SessionLoggedIn)
		m.gate.Open()
		if cookies, err := page.Cookies(); err == nil {
			_ = SaveCookies(m.cookieDir, cookies)
		}
		return nil
	}

	err := &types.LoginFailedError{Attempts: maxAttempts, Err: lastErr}
	// exhaustion: fail the gate so every caller parked on it observes this
	// error together; the orchestrator treats it as fatal for the run.
	m.gate.Fail(err)
	return err
}

func (m *Manager) attemptLogin(page types.BrowserPage, fetchHTML func() (string, error)) error {
	usernameSel, err := firstMatchingSelector(page, usernameSelectors)
	if err != nil {
		return err
	}
	passwordSel, err := firstMatchingSelector(page, passwordSelectors)
	if err != nil {
		return err
	}
	submitSel, err := firstMatchingSelector(page, submitSelectors)
	if err != nil {
		return err
	}

	if (usernameSel == "" || passwordSel == "" || submitSel == "") && m.planner != nil {
		plan, perr := m.planner.PlanPage(page)
		if perr == nil {
			if passwordSel == "" {
				passwordSel = plan.ScheduleSelector // planner has no dedicated login-field output in Plan; best effort
			}
		}
	}

	if passwordSel == "" {
		return fmt.Errorf("session: no password field located")
	}

	if usernameSel != "" && m.creds.Username != "" {
		if err := TypeHumanlike(page, usernameSel, m.creds.Username); err != nil {
			return fmt.Errorf("session: type username: %w", err)
		}
	}
	if err := TypeHumanlike(page, passwordSel, m.creds.Password); err != nil {
		return fmt.Errorf("session: type password: %w", err)
	}
	if submitSel != "" {
		if err := page.ClickHumanlike(submitSel); err != nil {
			return fmt.Errorf("session: click submit: %w", err)
		}
	}

	html, err := fetchHTML()
	if err != nil {
		return fmt.Errorf("session: fetch post-submit html: %w", err)
	}

	if IsTOTPChallenge(html) {
		if err := m.submitTOTP(page); err != nil {
			return err
		}
		html, err = fetchHTML()
		if err != nil {
			return fmt.Errorf("session: fetch post-totp html: %w", err)
		}
	}

	hasPassword, err := page.HasSelector("input[type=password]")
	if err != nil {
		return err
	}
	if hasPassword {
		return fmt.Errorf("session: password field still present after submit")
	}
	_ = html
	return nil
}

func (m *Manager) submitTOTP(page types.BrowserPage) error {
	code, err := GenerateTOTP(m.creds.TOTPSecret)
	if err != nil {
		return fmt.Errorf("session: generate totp: %w", err)
	}
	otpSel, err := firstMatchingSelector(page, []string{"input[name=otp]", "input[name=code]", "#otp", "#code"})
	if err != nil {
		return err
	}
	if otpSel == "" {
		return fmt.Errorf("session: no OTP field located")
	}
	if err := TypeHumanlike(page, otpSel, code); err != nil {
		return fmt.Errorf("session: type totp: %w", err)
	}
	submitSel, err := firstMatchingSelector(page, submitSelectors)
	if err != nil {
		return err
	}
	if submitSel != "" {
		return page.ClickHumanlike(submitSel)
	}
	return nil
}

func firstMatchingSelector(page types.BrowserPage, candidates []string) (string, error) {
	for _, sel := range candidates {
		found, err := page.HasSelector(sel)
		if err != nil {
			continue
		}
		if found {
			return sel, nil
		}
	}
	return "", nil
}

// PreloadCookies loads a fresh cookie store into page before the first
// navigation, marking state logged-in on success.
func (m *Manager) PreloadCookies(page types.BrowserPage) error {
	store, fresh, err := LoadCookies(m.cookieDir, m.cookieTTL)
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}
	if err := page.SetCookies(store.Cookies); err != nil {
		return fmt.Errorf("session: set cookies: %w", err)
	}
	m.setState(types.SessionLoggedIn)
	return nil
}
