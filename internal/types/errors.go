package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple, context-free failure modes.
var (
	ErrConfigMissing    = errors.New("required configuration value is missing")
	ErrGateExhausted    = errors.New("session gate failed: re-authentication exhausted")
	ErrEmptyResponse    = errors.New("empty response body")
	ErrPatternDiscarded = errors.New("day api pattern discarded: date placeholder could not be substituted")
)

// TrapError reports a URL or content heuristic rejection from the trap
// detector. It aborts processing of the offending URL only.
type TrapError struct {
	URL    string
	Reason string
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("trap detected at %s: %s", e.URL, e.Reason)
}

// PaywallError reports a 402 response. It aborts the URL without entering
// extraction.
type PaywallError struct {
	URL string
}

func (e *PaywallError) Error() string {
	return fmt.Sprintf("paywall encountered at %s", e.URL)
}

// FetchTransportError wraps a network/timeout failure. It is retriable once
// via the browser path by the caller.
type FetchTransportError struct {
	URL string
	Err error
}

func (e *FetchTransportError) Error() string {
	return fmt.Sprintf("fetch transport error for %s: %v", e.URL, e.Err)
}

func (e *FetchTransportError) Unwrap() error { return e.Err }

// AuthWallError reports a 401/403 response or a detected password field. It
// triggers the session gate.
type AuthWallError struct {
	URL    string
	Reason string
}

func (e *AuthWallError) Error() string {
	return fmt.Sprintf("auth wall at %s: %s", e.URL, e.Reason)
}

// LoginFailedError reports that all login attempts were exhausted. It is
// fatal for the URL run that triggered it.
type LoginFailedError struct {
	Attempts int
	Err      error
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("login failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *LoginFailedError) Unwrap() error { return e.Err }

// PersistError wraps a rejection from the upsert sink. It is fatal for the
// URL run.
type PersistError struct {
	Stage string // "organization", "locations", "classes"
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed at stage %q: %v", e.Stage, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
