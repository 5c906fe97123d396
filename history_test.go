package statesync

import (
	"net/url"
	"testing"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestMemoryHistoryReplaceDoesNotEmit(t *testing.T) {
	h := NewMemoryHistory(mustParseURL(t, "https://vibebar.app/app"))

	if err := h.Replace(mustParseURL(t, "https://vibebar.app/app?vibe=Party")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	select {
	case u := <-h.Navigations():
		t.Fatalf("expected no navigation from replace, got %v", u)
	default:
	}
	if got := h.Location().Query().Get("vibe"); got != "Party" {
		t.Fatalf("expected replaced location, got %q", got)
	}
	if h.Len() != 1 {
		t.Fatalf("expected replace to keep a single entry, got %d", h.Len())
	}
}

func TestMemoryHistoryBackEmitsNavigation(t *testing.T) {
	h := NewMemoryHistory(mustParseURL(t, "https://vibebar.app/app"))
	if err := h.Push(mustParseURL(t, "https://vibebar.app/app?vibe=Party")); err != nil {
		t.Fatalf("push: %v", err)
	}

	if !h.Back() {
		t.Fatalf("expected back to move")
	}
	select {
	case u := <-h.Navigations():
		if u.RawQuery != "" {
			t.Fatalf("expected original entry, got %q", u.RawQuery)
		}
	default:
		t.Fatalf("expected a navigation event from back")
	}
}

func TestMemoryHistoryForwardAfterBack(t *testing.T) {
	h := NewMemoryHistory(mustParseURL(t, "https://vibebar.app/app"))
	h.Push(mustParseURL(t, "https://vibebar.app/app?vibe=Party"))
	h.Back()
	<-h.Navigations()

	if !h.Forward() {
		t.Fatalf("expected forward to move")
	}
	u := <-h.Navigations()
	if u.Query().Get("vibe") != "Party" {
		t.Fatalf("expected forward to restore newer entry, got %q", u.RawQuery)
	}
}

func TestMemoryHistoryPushDiscardsForwardStack(t *testing.T) {
	h := NewMemoryHistory(mustParseURL(t, "https://vibebar.app/app"))
	h.Push(mustParseURL(t, "https://vibebar.app/app?vibe=Party"))
	h.Back()
	<-h.Navigations()
	h.Push(mustParseURL(t, "https://vibebar.app/app?vibe=Cozy"))

	if h.Forward() {
		t.Fatalf("expected forward stack discarded after push")
	}
	if h.Len() != 2 {
		t.Fatalf("expected two entries, got %d", h.Len())
	}
}

func TestMemoryHistoryBoundaries(t *testing.T) {
	h := NewMemoryHistory(nil)
	if h.Back() {
		t.Fatalf("expected back at oldest entry to refuse")
	}
	if h.Forward() {
		t.Fatalf("expected forward at newest entry to refuse")
	}
	if h.Location().Path != "/" {
		t.Fatalf("expected nil start to begin at /, got %q", h.Location().Path)
	}
}
