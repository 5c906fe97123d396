package statesync

import (
	"sync"
	"time"
)

// writeGuard tells the controller's own address-bar writes apart from genuine
// navigation. Two mechanisms back each other up: a short time window armed
// around every outbound write (the classic guard flag, self-clearing), and
// the canonical query of the last self-written URL, so an inbound event whose
// content matches what the controller just wrote is dropped as an echo even
// if scheduling delays outlive the window.
type writeGuard struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	until  time.Time
	last   string
}

func newWriteGuard(clock Clock, window time.Duration) *writeGuard {
	return &writeGuard{clock: clock, window: window}
}

// Arm raises the guard for the configured window.
func (g *writeGuard) Arm() {
	g.mu.Lock()
	g.until = g.clock.Now().Add(g.window)
	g.mu.Unlock()
}

// Active reports whether the window is still open.
func (g *writeGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Now().Before(g.until)
}

// Remember records the canonical query of a self-initiated write.
func (g *writeGuard) Remember(canonical string) {
	g.mu.Lock()
	g.last = canonical
	g.mu.Unlock()
}

// Echo reports whether canonical matches the last self-written query.
func (g *writeGuard) Echo(canonical string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last != "" && canonical == g.last
}
