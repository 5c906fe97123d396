package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOutAndJoinsErrors(t *testing.T) {
	boom := errors.New("sink down")
	capture := &CaptureHook{}
	failing := HookFunc(func(context.Context, Event) error { return boom })

	hooks := Hooks{capture, nil, failing}
	err := hooks.Notify(context.Background(), Event{Verb: "url.replaced", ObjectType: "url"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined sink error, got %v", err)
	}
	if got := len(capture.Captured()); got != 1 {
		t.Fatalf("expected 1 captured event, got %d", got)
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: "  "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Captured()) != 0 {
		t.Fatal("incomplete events must not be delivered")
	}
}

func TestNormalizeEventFillsDefaults(t *testing.T) {
	meta := map[string]any{"source": "url"}
	event := NormalizeEvent(Event{Verb: " state.hydrated ", ObjectType: "state", Metadata: meta})

	if event.Verb != "state.hydrated" {
		t.Fatalf("verb not trimmed: %q", event.Verb)
	}
	if event.ObjectID != "state" {
		t.Fatalf("expected object id to default to type, got %q", event.ObjectID)
	}
	if event.OccurredAt.IsZero() {
		t.Fatal("expected timestamp to be filled")
	}
	meta["source"] = "mutated"
	if event.Metadata["source"] != "url" {
		t.Fatal("metadata must be cloned, not aliased")
	}
}

func TestBuildSyncEventsCarryMetadata(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	event := BuildSnapshotSavedEvent(SyncEventInput{
		Source:     "storage",
		SnapshotID: "snap-9",
		OccurredAt: at,
	})
	if event.Verb != "snapshot.saved" || event.ObjectType != "snapshot" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.ObjectID != "snap-9" {
		t.Fatalf("expected snapshot id as object id, got %q", event.ObjectID)
	}
	if event.Metadata["source"] != "storage" || event.Metadata["snapshot_id"] != "snap-9" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected explicit timestamp preserved, got %v", event.OccurredAt)
	}

	nav := BuildNavigationAppliedEvent(SyncEventInput{Query: "view=recipe"})
	if nav.ObjectID != "view=recipe" || nav.Metadata["query"] != "view=recipe" {
		t.Fatalf("unexpected navigation event: %+v", nav)
	}
}
