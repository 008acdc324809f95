package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/gymscraper/internal/types"
)

type fakePage struct {
	selectors     map[string]bool
	typed         map[string]string
	clicked       []string
	passwordGone  bool
	cookiesStored []byte
}

func newFakePage() *fakePage {
	return &fakePage{
		selectors: map[string]bool{"input[type=password]": true},
		typed:     map[string]string{},
	}
}

func (f *fakePage) HTML() (string, error)        { return "<html></html>", nil }
func (f *fakePage) URL() string                   { return "https://x.test/login" }
func (f *fakePage) ClickHumanlike(sel string) error {
	f.clicked = append(f.clicked, sel)
	if sel == "button[type=submit]" {
		f.passwordGone = true
		f.selectors["input[type=password]"] = false
	}
	return nil
}
func (f *fakePage) HasSelector(sel string) (bool, error) { return f.selectors[sel], nil }
func (f *fakePage) TypeInto(sel, text string, delayFor func(r rune) time.Duration) error {
	f.typed[sel] = text
	return nil
}
func (f *fakePage) Navigate(rawURL string) error        { return nil }
func (f *fakePage) Cookies() ([]byte, error)             { return []byte(`[]`), nil }
func (f *fakePage) SetCookies(raw []byte) error          { return nil }

func TestGate_CloseThenOpen(t *testing.T) {
	g := NewGate()
	assert.True(t, g.IsOpen())
	g.Close()
	assert.False(t, g.IsOpen())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, g.Wait(context.Background()))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waiter should still be parked")
	case <-time.After(20 * time.Millisecond):
	}

	g.Open()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter should have been released")
	}
}

func TestGate_FailReleasesParkedWaitersWithError(t *testing.T) {
	g := NewGate()
	g.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait(context.Background()) }()

	select {
	case <-errCh:
		t.Fatal("waiter should still be parked")
	case <-time.After(20 * time.Millisecond):
	}

	sentinel := errors.New("login exhausted")
	g.Fail(sentinel)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, sentinel)
	case <-time.After(time.Second):
		t.Fatal("waiter should have been released with the fatal error")
	}

	assert.False(t, g.IsOpen(), "gate should stay closed for later callers until a future Open")
}

func TestGate_WaitRespectsContextCancellation(t *testing.T) {
	g := NewGate()
	g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter should have observed context cancellation")
	}
}

func TestManager_LoginSuccess(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Credentials{Username: "alice", Password: "secret"}, nil, dir, 24*time.Hour)
	page := newFakePage()
	page.selectors["input[name=username]"] = true
	page.selectors["button[type=submit]"] = true

	err := m.Login(page, func() (string, error) { return "<html></html>", nil })
	require.NoError(t, err)
	assert.Equal(t, types.SessionLoggedIn, m.State())
	assert.True(t, m.Gate().IsOpen())
	assert.Equal(t, "alice", page.typed["input[name=username]"])
	assert.Equal(t, "secret", page.typed["input[type=password]"])

	_, err = os.Stat(dir + "/.cookies.json")
	assert.NoError(t, err)
}

func TestManager_LoginFailsWithoutPasswordField(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Credentials{Username: "alice", Password: "secret"}, nil, dir, 24*time.Hour)
	page := newFakePage()
	page.selectors["input[type=password]"] = false

	m.Gate().Close()
	waitErrCh := make(chan error, 1)
	go func() { waitErrCh <- m.Gate().Wait(context.Background()) }()
	time.Sleep(20 * time.Millisecond) // let the waiter park before the login runs

	err := m.Login(page, func() (string, error) { return "<html></html>", nil })
	require.Error(t, err)
	var loginErr *types.LoginFailedError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, 2, loginErr.Attempts)

	// a caller parked on the gate during the exhausted login must observe
	// the same fatal error rather than block forever.
	select {
	case waitErr := <-waitErrCh:
		require.Error(t, waitErr)
		assert.ErrorAs(t, waitErr, &loginErr)
	case <-time.After(time.Second):
		t.Fatal("parked waiter should have been released with the fatal error")
	}
}

func TestManager_OnResponseClosesGateOn401(t *testing.T) {
	m := NewManager(Credentials{}, nil, t.TempDir(), time.Hour)
	m.OnResponse(401, "")
	assert.False(t, m.Gate().IsOpen())
	assert.Equal(t, types.SessionLoggedOut, m.State())
}

func TestManager_CookieRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveCookies(dir, []byte(`[{"name":"session"}]`)))

	store, fresh, err := LoadCookies(dir, time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.JSONEq(t, `[{"name":"session"}]`, string(store.Cookies))

	_, stale, err := LoadCookies(dir, -time.Second)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestGenerateTOTP_AcceptsShortSecret(t *testing.T) {
	code, err := GenerateTOTP("ME") // base32 for a single byte
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestIsTOTPChallenge(t *testing.T) {
	assert.True(t, IsTOTPChallenge("Please enter your Verification Code"))
	assert.True(t, IsTOTPChallenge("Open your authenticator app"))
	assert.False(t, IsTOTPChallenge("Welcome back!"))
}
