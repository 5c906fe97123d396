package statesync

import (
	"fmt"
	"net/url"
	"sync"
)

// History is the address-bar surface the controller talks to. Replace and
// Push must not emit on Navigations: only externally caused movement
// (back/forward, deep links) flows through that channel, mirroring how
// replaceState and pushState never fire popstate.
type History interface {
	Location() *url.URL
	Replace(u *url.URL) error
	Push(u *url.URL) error
	Navigations() <-chan *url.URL
}

// navigationBuffer bounds the inbound channel. Navigation events are edge
// signals carrying full URLs, so dropping the oldest under pressure loses
// nothing the next event does not restate.
const navigationBuffer = 16

// MemoryHistory is an in-process History with full back/forward stack
// semantics, for hosts without a real address bar and for tests.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []*url.URL
	index   int
	nav     chan *url.URL
}

// NewMemoryHistory constructs a history whose single entry is start. A nil
// start begins at "/".
func NewMemoryHistory(start *url.URL) *MemoryHistory {
	if start == nil {
		start = &url.URL{Path: "/"}
	}
	return &MemoryHistory{
		entries: []*url.URL{cloneURL(start)},
		nav:     make(chan *url.URL, navigationBuffer),
	}
}

// Location returns a copy of the current entry.
func (h *MemoryHistory) Location() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneURL(h.entries[h.index])
}

// Replace overwrites the current entry without emitting a navigation.
func (h *MemoryHistory) Replace(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("statesync: replace requires a url")
	}
	h.mu.Lock()
	h.entries[h.index] = cloneURL(u)
	h.mu.Unlock()
	return nil
}

// Push appends a new entry, discarding any forward stack, without emitting a
// navigation.
func (h *MemoryHistory) Push(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("statesync: push requires a url")
	}
	h.mu.Lock()
	h.entries = append(h.entries[:h.index+1], cloneURL(u))
	h.index = len(h.entries) - 1
	h.mu.Unlock()
	return nil
}

// Back moves one entry towards the oldest and emits it as a navigation.
// It reports whether movement happened.
func (h *MemoryHistory) Back() bool {
	h.mu.Lock()
	if h.index == 0 {
		h.mu.Unlock()
		return false
	}
	h.index--
	u := cloneURL(h.entries[h.index])
	h.mu.Unlock()
	h.emit(u)
	return true
}

// Forward moves one entry towards the newest and emits it as a navigation.
func (h *MemoryHistory) Forward() bool {
	h.mu.Lock()
	if h.index >= len(h.entries)-1 {
		h.mu.Unlock()
		return false
	}
	h.index++
	u := cloneURL(h.entries[h.index])
	h.mu.Unlock()
	h.emit(u)
	return true
}

// Navigations exposes externally caused movement.
func (h *MemoryHistory) Navigations() <-chan *url.URL {
	return h.nav
}

// Len reports how many entries the stack holds.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *MemoryHistory) emit(u *url.URL) {
	for {
		select {
		case h.nav <- u:
			return
		default:
		}
		select {
		case <-h.nav: // drop the oldest and retry
		default:
		}
	}
}

func cloneURL(u *url.URL) *url.URL {
	out := *u
	return &out
}
