package statesync

import (
	"encoding/json"
)

// Trace captures provenance for one hydration pass: which source was
// authoritative and, per field, whether that source supplied a value or the
// default survived.
type Trace struct {
	Source string            `json:"source"`
	Fields []FieldProvenance `json:"fields"`
}

// FieldProvenance details how a single field got its hydrated value.
type FieldProvenance struct {
	Field  string `json:"field"`
	Source string `json:"source"`
	Value  any    `json:"value,omitempty"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// hydrationTrace builds a per-field provenance record for a hydration from
// source. Fields the patch touches are attributed to source, the rest to
// defaults. The resulting state supplies the recorded values.
func hydrationTrace(source string, patch Patch, state State) Trace {
	binding := state.Binding()
	trace := Trace{Source: source}
	touched := patch.fieldSet()
	for _, name := range Fields() {
		origin := "default"
		if touched[name] {
			origin = source
		}
		trace.Fields = append(trace.Fields, FieldProvenance{
			Field:  name,
			Source: origin,
			Value:  binding[name],
		})
	}
	return trace
}
