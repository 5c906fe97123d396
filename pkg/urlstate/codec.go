// Package urlstate maps shareable application state to and from URL query
// parameters. Every function is a pure transformation of its inputs: the
// package holds no state and never touches the address bar itself, which keeps
// encode/decode independently testable.
//
// Absence is meaningful. A parameter missing from the query decodes to a nil
// field rather than a zero value, so callers can tell "not in the URL" apart
// from "in the URL but empty" and decide default-filling themselves. The
// encoder mirrors this by omitting empty values entirely.
package urlstate

import (
	"net/url"
	"strings"
)

// Query parameter keys understood by the codec.
const (
	KeyView        = "view"
	KeyIngredients = "ingredients"
	KeyFlavors     = "flavors"
	KeyVibe        = "vibe"
	KeyRequests    = "requests"
	KeyRecipeID    = "recipeId"
)

// Params is the decoded URL representation. A nil field means the parameter
// was absent from the query.
type Params struct {
	View        *string
	Ingredients *[]string
	Flavors     *[]string
	Vibe        *string
	Requests    *string
	RecipeID    *string
}

// IsZero reports whether no parameter carries a value. Empty strings and
// empty lists count as carrying nothing.
func (p Params) IsZero() bool {
	return !hasString(p.View) &&
		!hasList(p.Ingredients) &&
		!hasList(p.Flavors) &&
		!hasString(p.Vibe) &&
		!hasString(p.Requests) &&
		!hasString(p.RecipeID)
}

// Decode parses the query component of u into Params. A nil URL decodes to
// zero Params. Malformed query fragments are discarded rather than failing
// the whole decode.
func Decode(u *url.URL) Params {
	if u == nil {
		return Params{}
	}
	return DecodeQuery(u.RawQuery)
}

// DecodeQuery parses a raw query string into Params. url.ParseQuery reports
// the first malformed pair but still returns everything it could parse; the
// parsed remainder is used and the error dropped, matching the recover-by-
// discarding posture for corrupted input.
func DecodeQuery(query string) Params {
	values, _ := url.ParseQuery(query)
	var p Params
	if v, ok := lookup(values, KeyView); ok {
		p.View = &v
	}
	if v, ok := lookup(values, KeyIngredients); ok {
		list := splitList(v)
		p.Ingredients = &list
	}
	if v, ok := lookup(values, KeyFlavors); ok {
		list := splitList(v)
		p.Flavors = &list
	}
	if v, ok := lookup(values, KeyVibe); ok {
		p.Vibe = &v
	}
	if v, ok := lookup(values, KeyRequests); ok {
		p.Requests = &v
	}
	if v, ok := lookup(values, KeyRecipeID); ok {
		p.RecipeID = &v
	}
	return p
}

// Encode converts Params into query values. Nil and empty fields are omitted,
// so the produced query only names parameters that carry state.
func Encode(p Params) url.Values {
	values := url.Values{}
	if hasString(p.View) {
		values.Set(KeyView, *p.View)
	}
	if hasList(p.Ingredients) {
		values.Set(KeyIngredients, joinList(*p.Ingredients))
	}
	if hasList(p.Flavors) {
		values.Set(KeyFlavors, joinList(*p.Flavors))
	}
	if hasString(p.Vibe) {
		values.Set(KeyVibe, *p.Vibe)
	}
	if hasString(p.Requests) {
		values.Set(KeyRequests, *p.Requests)
	}
	if hasString(p.RecipeID) {
		values.Set(KeyRecipeID, *p.RecipeID)
	}
	return values
}

// Canonical returns a deterministic string form of p. url.Values.Encode sorts
// by key, so two Params carrying the same state always canonicalize to the
// same string regardless of how they were produced.
func Canonical(p Params) string {
	return Encode(p).Encode()
}

// Apply returns a copy of base with its query replaced by the encoding of p.
// The base URL is never mutated.
func Apply(base *url.URL, p Params) *url.URL {
	var out url.URL
	if base != nil {
		out = *base
	}
	out.RawQuery = Canonical(p)
	return &out
}

// ShareURL renders an absolute URL string for p rooted at base.
func ShareURL(base *url.URL, p Params) string {
	return Apply(base, p).String()
}

func lookup(values url.Values, key string) (string, bool) {
	if !values.Has(key) {
		return "", false
	}
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return "", false
	}
	return v, true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func joinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, ",")
}

func hasString(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

func hasList(v *[]string) bool {
	if v == nil {
		return false
	}
	for _, item := range *v {
		if strings.TrimSpace(item) != "" {
			return true
		}
	}
	return false
}
