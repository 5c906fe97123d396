package statesync

import "testing"

func TestHydrationTraceAttributesFields(t *testing.T) {
	vibe := "Party"
	ingredients := []string{"Gin"}
	patch := Patch{SelectedVibe: &vibe, SelectedIngredients: &ingredients}
	state := DefaultState()
	patch.applyTo(&state)

	trace := hydrationTrace("url", patch, state)
	if trace.Source != "url" {
		t.Fatalf("expected url source, got %q", trace.Source)
	}
	byField := make(map[string]FieldProvenance, len(trace.Fields))
	for _, field := range trace.Fields {
		byField[field.Field] = field
	}
	if got := byField[FieldSelectedVibe]; got.Source != "url" || got.Value != "Party" {
		t.Fatalf("expected vibe attributed to url, got %+v", got)
	}
	if got := byField[FieldCurrentView]; got.Source != "default" {
		t.Fatalf("expected untouched view attributed to default, got %+v", got)
	}
	if len(trace.Fields) != len(Fields()) {
		t.Fatalf("expected every field traced, got %d", len(trace.Fields))
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Source: "storage",
		Fields: []FieldProvenance{
			{Field: FieldSelectedVibe, Source: "storage", Value: "Cozy"},
		},
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Source != "storage" || len(decoded.Fields) != 1 || decoded.Fields[0].Value != "Cozy" {
		t.Fatalf("unexpected round trip result %+v", decoded)
	}
}
