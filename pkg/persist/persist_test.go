package persist

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

type barSnapshot struct {
	SelectedIngredients   []string `json:"selectedIngredients"`
	SelectedFlavors       []string `json:"selectedFlavors"`
	CustomIngredientInput string   `json:"customIngredientInput"`
	SelectedVibe          *string  `json:"selectedVibe"`
	SpecialRequests       string   `json:"specialRequests"`
}

type failingBackend struct {
	putErr error
	getErr error
}

func (b *failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, b.getErr
}

func (b *failingBackend) Put(context.Context, string, []byte) error { return b.putErr }
func (b *failingBackend) Delete(context.Context, string) error      { return nil }

func newTestAdapter(t *testing.T, backend Backend, now *time.Time, opts ...Option) *Adapter[barSnapshot] {
	t.Helper()
	base := []Option{
		WithNow(func() time.Time { return *now }),
		WithSnapshotIDs(func() string { return "snap-1" }),
	}
	adapter, err := New[barSnapshot](backend, append(base, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return adapter
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now)

	vibe := "Party"
	want := barSnapshot{
		SelectedIngredients: []string{"Rum", "Lime"},
		SelectedVibe:        &vibe,
		SpecialRequests:     "extra ice",
	}
	meta, ok := adapter.Save(ctx, want)
	if !ok {
		t.Fatal("save reported failure")
	}
	if meta.SnapshotID != "snap-1" || !meta.SavedAt.Equal(now) {
		t.Fatalf("unexpected meta %+v", meta)
	}

	got, gotMeta, ok := adapter.Load(ctx)
	if !ok {
		t.Fatal("expected snapshot present")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if gotMeta.SnapshotID != "snap-1" || !gotMeta.SavedAt.Equal(now) {
		t.Fatalf("unexpected loaded meta %+v", gotMeta)
	}
}

func TestSaveWritesFlatEnvelope(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now)

	if _, ok := adapter.Save(ctx, barSnapshot{SelectedIngredients: []string{"Gin"}}); !ok {
		t.Fatal("save reported failure")
	}
	payload, _, _ := backend.Get(ctx, DefaultKey)
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("stored payload not json: %v", err)
	}
	if raw["timestamp"] != float64(1_700_000_000_000) {
		t.Fatalf("expected epoch-millis timestamp sibling, got %v", raw["timestamp"])
	}
	if raw["snapshotId"] != "snap-1" {
		t.Fatalf("expected snapshotId sibling, got %v", raw["snapshotId"])
	}
	if _, ok := raw["selectedIngredients"]; !ok {
		t.Fatal("snapshot fields must stay at top level")
	}
}

func TestLoadExpiredSnapshotIsAbsentAndDeleted(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now)

	if _, ok := adapter.Save(ctx, barSnapshot{SpecialRequests: "old"}); !ok {
		t.Fatal("save reported failure")
	}
	// 90_000_000 ms later, past the 24h TTL.
	now = now.Add(90_000_000 * time.Millisecond)

	if _, _, ok := adapter.Load(ctx); ok {
		t.Fatal("expired snapshot must load as absent")
	}
	if _, ok, _ := backend.Get(ctx, DefaultKey); ok {
		t.Fatal("expired snapshot must be deleted on read")
	}
}

func TestLoadFreshSnapshotSurvivesTTL(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now)

	if _, ok := adapter.Save(ctx, barSnapshot{SelectedIngredients: []string{"Rum"}}); !ok {
		t.Fatal("save reported failure")
	}
	now = now.Add(time.Second)

	got, _, ok := adapter.Load(ctx)
	if !ok {
		t.Fatal("fresh snapshot must load")
	}
	if !reflect.DeepEqual(got.SelectedIngredients, []string{"Rum"}) {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestLoadCorruptPayloadSelfHeals(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	var events []Event
	adapter := newTestAdapter(t, backend, &now, WithLogger(LoggerFunc(func(e Event) {
		events = append(events, e)
	})))

	if err := backend.Put(ctx, DefaultKey, []byte(`{"selectedIngredients": not-json`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, ok := adapter.Load(ctx); ok {
		t.Fatal("corrupt snapshot must load as absent")
	}
	if _, ok, _ := backend.Get(ctx, DefaultKey); ok {
		t.Fatal("corrupt snapshot must be deleted on read")
	}
	if len(events) == 0 || events[len(events)-1].Op != "purge" {
		t.Fatalf("expected purge event, got %+v", events)
	}
}

func TestLoadMissingTimestampIsStale(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now)

	if err := backend.Put(ctx, DefaultKey, []byte(`{"specialRequests":"hi"}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, ok := adapter.Load(ctx); ok {
		t.Fatal("payload without timestamp must be treated as stale")
	}
}

func TestSaveFailureIsLoggedNotRaised(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	quota := errors.New("quota exceeded")
	var events []Event
	adapter := newTestAdapter(t, &failingBackend{putErr: quota}, &now, WithLogger(LoggerFunc(func(e Event) {
		events = append(events, e)
	})))

	if _, ok := adapter.Save(ctx, barSnapshot{}); ok {
		t.Fatal("expected save to report failure")
	}
	if len(events) != 1 || !errors.Is(events[0].Err, quota) {
		t.Fatalf("expected logged quota error, got %+v", events)
	}
}

func TestPreDecodeHookMigratesLegacyKeys(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	backend := NewMemoryBackend()
	adapter := newTestAdapter(t, backend, &now, WithPreDecodeHook(func(raw map[string]any) (map[string]any, error) {
		if legacy, ok := raw["ingredients"]; ok {
			raw["selectedIngredients"] = legacy
			delete(raw, "ingredients")
		}
		return raw, nil
	}))

	payload := []byte(`{"ingredients":["Gin"],"timestamp":1700000000000}`)
	if err := backend.Put(ctx, DefaultKey, payload); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _, ok := adapter.Load(ctx)
	if !ok {
		t.Fatal("expected migrated snapshot to load")
	}
	if !reflect.DeepEqual(got.SelectedIngredients, []string{"Gin"}) {
		t.Fatalf("expected migrated ingredients, got %+v", got)
	}
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New[barSnapshot](nil); !errors.Is(err, ErrNilBackend) {
		t.Fatalf("expected ErrNilBackend, got %v", err)
	}
}
