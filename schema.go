package statesync

import "fmt"

// FieldDescriptor describes one synchronized field: its name, the Go type of
// its value, and which replicas it reaches.
type FieldDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	URLRelevant bool   `json:"urlRelevant"`
	Persisted   bool   `json:"persisted"`
}

// Schema returns descriptors for every known field in registration order.
// Hosts use it to render debug panels or validate integration wiring without
// hard-coding the field list.
func Schema() []FieldDescriptor {
	binding := DefaultState().Binding()
	descriptors := make([]FieldDescriptor, 0, len(fieldRegistry))
	for _, spec := range fieldRegistry {
		descriptors = append(descriptors, FieldDescriptor{
			Name:        spec.name,
			Type:        typeName(binding[spec.name]),
			URLRelevant: spec.urlRelevant,
			Persisted:   spec.persisted,
		})
	}
	return descriptors
}

// URLRelevantFields returns the names mirrored into the shareable URL.
func URLRelevantFields() []string {
	var names []string
	for _, spec := range fieldRegistry {
		if spec.urlRelevant {
			names = append(names, spec.name)
		}
	}
	return names
}

// PersistedFields returns the names written to durable storage.
func PersistedFields() []string {
	var names []string
	for _, spec := range fieldRegistry {
		if spec.persisted {
			names = append(names, spec.name)
		}
	}
	return names
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
