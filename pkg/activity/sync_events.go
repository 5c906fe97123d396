package activity

import (
	"strings"
	"time"
)

// SyncEventInput describes the common fields for sync lifecycle events.
type SyncEventInput struct {
	Source     string
	SnapshotID string
	Query      string
	URL        string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStateHydratedEvent constructs an event for the one-time hydration of
// the in-memory store. Source names where the state came from ("url" or
// "storage").
func BuildStateHydratedEvent(input SyncEventInput) Event {
	return buildSyncEvent("state.hydrated", "state", input)
}

// BuildURLReplacedEvent constructs an event for an outbound address-bar write.
func BuildURLReplacedEvent(input SyncEventInput) Event {
	return buildSyncEvent("url.replaced", "url", input)
}

// BuildSnapshotSavedEvent constructs an event for a persisted snapshot write.
func BuildSnapshotSavedEvent(input SyncEventInput) Event {
	return buildSyncEvent("snapshot.saved", "snapshot", input)
}

// BuildNavigationAppliedEvent constructs an event for an inbound navigation
// folded into the store.
func BuildNavigationAppliedEvent(input SyncEventInput) Event {
	return buildSyncEvent("navigation.applied", "url", input)
}

// BuildShareCopiedEvent constructs an event for a shareable URL handed to the
// clipboard.
func BuildShareCopiedEvent(input SyncEventInput) Event {
	return buildSyncEvent("share.copied", "url", input)
}

func buildSyncEvent(verb, objectType string, input SyncEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Source != "" {
		metadata = ensureMetadata(metadata)
		metadata["source"] = input.Source
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.Query != "" {
		metadata = ensureMetadata(metadata)
		metadata["query"] = input.Query
	}
	if input.URL != "" {
		metadata = ensureMetadata(metadata)
		metadata["url"] = input.URL
	}

	objectID := strings.TrimSpace(input.SnapshotID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Query)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
