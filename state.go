// Package statesync keeps three replicas of a small, flat application state
// consistent with each other: the in-memory store that UI collaborators read
// and write, the shareable address-bar URL, and a durable persisted snapshot.
// The store is the single source of truth during a session; the controller
// mirrors changes outward to the URL and storage, folds navigation events back
// in, and suppresses its own writes from re-entering as input.
package statesync

// DefaultView is the view shown when neither the URL nor storage carries one.
const DefaultView = "builder"

// State is the flat record shared between UI collaborators and the sync
// engine. Fields are independently optional: an empty value means the field
// carries nothing, and the Patch type expresses "leave untouched" separately.
type State struct {
	CurrentView           string
	SelectedIngredients   []string
	SelectedFlavors       []string
	CustomIngredientInput string
	SelectedVibe          string
	SpecialRequests       string
	RecipeID              string
	FormRestored          bool
}

// DefaultState returns the state a fresh session starts from.
func DefaultState() State {
	return State{CurrentView: DefaultView}
}

// Clone returns a copy sharing no mutable memory with s.
func (s State) Clone() State {
	out := s
	out.SelectedIngredients = cloneList(s.SelectedIngredients)
	out.SelectedFlavors = cloneList(s.SelectedFlavors)
	return out
}

// Binding exposes the state as a name-to-value map, the environment watch
// expressions evaluate against.
func (s State) Binding() map[string]any {
	return map[string]any{
		FieldCurrentView:           s.CurrentView,
		FieldSelectedIngredients:   cloneList(s.SelectedIngredients),
		FieldSelectedFlavors:       cloneList(s.SelectedFlavors),
		FieldCustomIngredientInput: s.CustomIngredientInput,
		FieldSelectedVibe:          s.SelectedVibe,
		FieldSpecialRequests:       s.SpecialRequests,
		FieldRecipeID:              s.RecipeID,
		FieldFormRestored:          s.FormRestored,
	}
}

/// Patch is a partial State: nil fields are left untouched by BulkUpdate,
// non-nil fields replace the current value. This is how absence stays
// distinct from emptiness across hydration and navigation.
type Patch struct {
	CurrentView           *string
	SelectedIngredients   *[]string
	SelectedFlavors       *[]string
	CustomIngredientInput *string
	SelectedVibe          *string
	SpecialRequests       *string
	RecipeID              *string
	FormRestored          *bool
}

// IsZero reports whether the patch touches nothing.
func (p Patch) IsZero() bool {
	return p.CurrentView == nil &&
		p.SelectedIngredients == nil &&
		p.SelectedFlavors == nil &&
		p.CustomIngredientInput == nil &&
		p.SelectedVibe == nil &&
		p.SpecialRequests == nil &&
		p.RecipeID == nil &&
		p.FormRestored == nil
}

// fieldSet reports which field names the patch touches.
func (p Patch) fieldSet() map[string]bool {
	return map[string]bool{
		FieldCurrentView:           p.CurrentView != nil,
		FieldSelectedIngredients:   p.SelectedIngredients != nil,
		FieldSelectedFlavors:       p.SelectedFlavors != nil,
		FieldCustomIngredientInput: p.CustomIngredientInput != nil,
		FieldSelectedVibe:          p.SelectedVibe != nil,
		FieldSpecialRequests:       p.SpecialRequests != nil,
		FieldRecipeID:              p.RecipeID != nil,
		FieldFormRestored:          p.FormRestored != nil,
	}
}

func (p Patch) applyTo(s *State) bool {
	changed := false
	if p.CurrentView != nil && s.CurrentView != *p.CurrentView {
		s.CurrentView = *p.CurrentView
		changed = true
	}
	if p.SelectedIngredients != nil && !equalLists(s.SelectedIngredients, *p.SelectedIngredients) {
		s.SelectedIngredients = cloneList(*p.SelectedIngredients)
		changed = true
	}
	if p.SelectedFlavors != nil && !equalLists(s.SelectedFlavors, *p.SelectedFlavors) {
		s.SelectedFlavors = cloneList(*p.SelectedFlavors)
		changed = true
	}
	if p.CustomIngredientInput != nil && s.CustomIngredientInput != *p.CustomIngredientInput {
		s.CustomIngredientInput = *p.CustomIngredientInput
		changed = true
	}
	if p.SelectedVibe != nil && s.SelectedVibe != *p.SelectedVibe {
		s.SelectedVibe = *p.SelectedVibe
		changed = true
	}
	if p.SpecialRequests != nil && s.SpecialRequests != *p.SpecialRequests {
		s.SpecialRequests = *p.SpecialRequests
		changed = true
	}
	if p.RecipeID != nil && s.RecipeID != *p.RecipeID {
		s.RecipeID = *p.RecipeID
		changed = true
	}
	if p.FormRestored != nil && s.FormRestored != *p.FormRestored {
		s.FormRestored = *p.FormRestored
		changed = true
	}
	return changed
}

// StoredState is the subset of State written to durable storage. Ephemeral
// fields (the current view, the generated recipe reference, the restoration
// marker) deliberately never reach disk.
type StoredState struct {
	SelectedIngredients   []string `json:"selectedIngredients"`
	SelectedFlavors       []string `json:"selectedFlavors"`
	CustomIngredientInput string   `json:"customIngredientInput"`
	SelectedVibe          *string  `json:"selectedVibe"`
	SpecialRequests       string   `json:"specialRequests"`
}

// Stored projects the persisted subset out of s.
func (s State) Stored() StoredState {
	out := StoredState{
		SelectedIngredients:   cloneList(s.SelectedIngredients),
		SelectedFlavors:       cloneList(s.SelectedFlavors),
		CustomIngredientInput: s.CustomIngredientInput,
		SpecialRequests:       s.SpecialRequests,
	}
	if s.SelectedIngredients == nil {
		out.SelectedIngredients = []string{}
	}
	if s.SelectedFlavors == nil {
		out.SelectedFlavors = []string{}
	}
	if s.SelectedVibe != "" {
		vibe := s.SelectedVibe
		out.SelectedVibe = &vibe
	}
	return out
}

// Patch converts a restored snapshot into a store update. Every stored field
// is considered present: a snapshot that was saved with an empty list really
// means "no selection", not "unknown".
func (st StoredState) Patch() Patch {
	ingredients := cloneList(st.SelectedIngredients)
	if ingredients == nil {
		ingredients = []string{}
	}
	flavors := cloneList(st.SelectedFlavors)
	if flavors == nil {
		flavors = []string{}
	}
	custom := st.CustomIngredientInput
	requests := st.SpecialRequests
	vibe := ""
	if st.SelectedVibe != nil {
		vibe = *st.SelectedVibe
	}
	return Patch{
		SelectedIngredients:   &ingredients,
		SelectedFlavors:       &flavors,
		CustomIngredientInput: &custom,
		SelectedVibe:          &vibe,
		SpecialRequests:       &requests,
	}
}

func cloneList(items []string) []string {
	if items == nil {
		return nil
	}
	return append([]string(nil), items...)
}

func equalLists(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
