// Package session maintains authentication state across a scraping run: a
// latch every fetch awaits, a credential+OTP login flow, and cookie
// persistence.
package session

import (
	"context"
	"sync"
)

// generation pairs one pending channel with the sticky error (if any) that
// every caller parked on it should observe once it closes.
type generation struct {
	ch  chan struct{}
	err error
}

// Gate is a replaceable latch: closed while re-authentication is pending,
// open otherwise. Closing atomically swaps in a fresh pending generation so
// waiters parked before the swap still block, matching the "construct a
// new pending latch atomically" design note.
type Gate struct {
	mu  sync.RWMutex
	gen *generation
}

// NewGate returns an initially open gate.
func NewGate() *Gate {
	g := &Gate{gen: &generation{ch: make(chan struct{})}}
	close(g.gen.ch)
	return g
}

// Wait blocks until the gate opens, ctx is cancelled, or the generation the
// caller parked on fails — in which case every caller parked on that same
// generation receives the same sticky error, per "all parked callers are
// failed together on exhaustion."
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.RLock()
	gen := g.gen
	g.mu.RUnlock()

	select {
	case <-gen.ch:
		return gen.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the gate pending. Re-entrant closes while already closed are
// no-ops (the caller is expected to check loginInProgress separately via
// Manager before deciding to start a re-authentication task).
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.gen.ch:
		// currently open; swap in a fresh pending generation
		g.gen = &generation{ch: make(chan struct{})}
	default:
		// already closed
	}
}

// Open resolves the current pending generation, releasing every parked
// waiter with a nil error.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.gen.ch:
		// already open
	default:
		close(g.gen.ch)
	}
}

// Fail resolves the current pending generation with err, releasing every
// caller parked on it with that fatal error, then swaps in a fresh pending
// generation so a later login attempt can still open the gate normally for
// callers that arrive afterward.
func (g *Gate) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.gen.ch:
		// already open; nothing parked on this generation to fail
	default:
		g.gen.err = err
		close(g.gen.ch)
	}
	g.gen = &generation{ch: make(chan struct{})}
}

// IsOpen reports the gate's current state without blocking.
func (g *Gate) IsOpen() bool {
	g.mu.RLock()
	gen := g.gen
	g.mu.RUnlock()
	select {
	case <-gen.ch:
		return gen.err == nil
	default:
		return false
	}
}
