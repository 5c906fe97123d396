package statesync

import "github.com/vibebar/statesync/pkg/urlstate"

// Field names understood by Store.SetField and exposed through State.Binding.
const (
	FieldCurrentView           = "currentView"
	FieldSelectedIngredients   = "selectedIngredients"
	FieldSelectedFlavors       = "selectedFlavors"
	FieldCustomIngredientInput = "customIngredientInput"
	FieldSelectedVibe          = "selectedVibe"
	FieldSpecialRequests       = "specialRequests"
	FieldRecipeID              = "recipeId"
	FieldFormRestored          = "isFormRestored"
)

type fieldSpec struct {
	name        string
	urlRelevant bool
	persisted   bool
	apply       func(*State, any) bool
}

// Registration order is fixed so diagnostics stay stable across runs.
var fieldRegistry = []fieldSpec{
	{FieldCurrentView, true, false, applyString(func(s *State) *string { return &s.CurrentView })},
	{FieldSelectedIngredients, true, true, applyList(func(s *State) *[]string { return &s.SelectedIngredients })},
	{FieldSelectedFlavors, true, true, applyList(func(s *State) *[]string { return &s.SelectedFlavors })},
	{FieldCustomIngredientInput, false, true, applyString(func(s *State) *string { return &s.CustomIngredientInput })},
	{FieldSelectedVibe, true, true, applyString(func(s *State) *string { return &s.SelectedVibe })},
	{FieldSpecialRequests, true, true, applyString(func(s *State) *string { return &s.SpecialRequests })},
	{FieldRecipeID, true, false, applyString(func(s *State) *string { return &s.RecipeID })},
	{FieldFormRestored, false, false, applyBool(func(s *State) *bool { return &s.FormRestored })},
}

// Fields returns the known field names in registration order.
func Fields() []string {
	names := make([]string, 0, len(fieldRegistry))
	for _, spec := range fieldRegistry {
		names = append(names, spec.name)
	}
	return names
}

func lookupField(name string) (fieldSpec, bool) {
	for _, spec := range fieldRegistry {
		if spec.name == name {
			return spec, true
		}
	}
	return fieldSpec{}, false
}

func applyString(slot func(*State) *string) func(*State, any) bool {
	return func(s *State, value any) bool {
		v, ok := value.(string)
		if !ok {
			return false
		}
		*slot(s) = v
		return true
	}
}

func applyBool(slot func(*State) *bool) func(*State, any) bool {
	return func(s *State, value any) bool {
		v, ok := value.(bool)
		if !ok {
			return false
		}
		*slot(s) = v
		return true
	}
}

func applyList(slot func(*State) *[]string) func(*State, any) bool {
	return func(s *State, value any) bool {
		switch v := value.(type) {
		case []string:
			*slot(s) = cloneList(v)
			return true
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				str, ok := item.(string)
				if !ok {
					return false
				}
				out = append(out, str)
			}
			*slot(s) = out
			return true
		default:
			return false
		}
	}
}

// URLParams projects the URL-relevant subset of s into codec parameters.
// Empty values stay absent so the encoded query only names carried state.
func (s State) URLParams() urlstate.Params {
	var p urlstate.Params
	if s.CurrentView != "" && s.CurrentView != DefaultView {
		view := s.CurrentView
		p.View = &view
	}
	if len(s.SelectedIngredients) > 0 {
		list := cloneList(s.SelectedIngredients)
		p.Ingredients = &list
	}
	if len(s.SelectedFlavors) > 0 {
		list := cloneList(s.SelectedFlavors)
		p.Flavors = &list
	}
	if s.SelectedVibe != "" {
		vibe := s.SelectedVibe
		p.Vibe = &vibe
	}
	if s.SpecialRequests != "" {
		requests := s.SpecialRequests
		p.Requests = &requests
	}
	if s.RecipeID != "" {
		id := s.RecipeID
		p.RecipeID = &id
	}
	return p
}

// PatchFromParams converts decoded URL parameters into a store update.
// Absent parameters produce nil patch fields and leave the store untouched.
func PatchFromParams(p urlstate.Params) Patch {
	var patch Patch
	if p.View != nil {
		view := *p.View
		patch.CurrentView = &view
	}
	if p.Ingredients != nil {
		list := cloneList(*p.Ingredients)
		patch.SelectedIngredients = &list
	}
	if p.Flavors != nil {
		list := cloneList(*p.Flavors)
		patch.SelectedFlavors = &list
	}
	if p.Vibe != nil {
		vibe := *p.Vibe
		patch.SelectedVibe = &vibe
	}
	if p.Requests != nil {
		requests := *p.Requests
		patch.SpecialRequests = &requests
	}
	if p.RecipeID != nil {
		id := *p.RecipeID
		patch.RecipeID = &id
	}
	return patch
}

// carriesState reports whether decoded parameters hold anything beyond the
// default view, which decides URL-versus-storage authority during hydration.
func carriesState(p urlstate.Params) bool {
	if p.View != nil && *p.View != DefaultView {
		return true
	}
	trimmed := p
	trimmed.View = nil
	return !trimmed.IsZero()
}
