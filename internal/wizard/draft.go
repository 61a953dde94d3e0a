package wizard

import (
	"strings"
)

// Draft is the mutable working state of one in-progress wizard session.
// It maps field names to values: strings, bools, numbers, nested maps
// (address, emergency contact) and ordered slices (options, family members).
// A Draft is owned by exactly one session and is never shared.
type Draft struct {
	fields map[string]any
}

// NewDraft creates an empty Draft.
func NewDraft() *Draft {
	return &Draft{fields: map[string]any{}}
}

// FromRecord creates a Draft pre-populated from an existing record (edit mode).
// The record is deep-copied so later mutations never leak back into it.
func FromRecord(record map[string]any) *Draft {
	return &Draft{fields: deepCopyMap(record)}
}

// Update shallow-merges partial over the existing fields. Sibling fields are
// untouched. Array-valued fields are replaced wholesale; callers compute the
// full new slice (append/remove/reorder) before calling Update.
func (d *Draft) Update(partial map[string]any) {
	for k, v := range partial {
		d.fields[k] = v
	}
}

// Set writes a value at a dotted path, creating intermediate maps as needed.
// Used for compound fields such as "address.city".
func (d *Draft) Set(path string, value any) {
	parts := strings.Split(path, ".")
	target := d.fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := target[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[part] = next
		}
		target = next
	}
	target[parts[len(parts)-1]] = value
}

// Get returns the raw value at a dotted path, or nil if absent.
func (d *Draft) Get(path string) any {
	parts := strings.Split(path, ".")
	var current any = d.fields
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// Str returns the string at path, or "" if absent or not a string.
func (d *Draft) Str(path string) string {
	s, _ := d.Get(path).(string)
	return s
}

// Bool returns the bool at path, or false if absent or not a bool.
func (d *Draft) Bool(path string) bool {
	b, _ := d.Get(path).(bool)
	return b
}

// Int returns the int at path, accepting int or float64 (JSON numbers).
func (d *Draft) Int(path string) int {
	switch n := d.Get(path).(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Strings returns the string slice at path, or nil.
func (d *Draft) Strings(path string) []string {
	switch v := d.Get(path).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

// List returns the slice of nested records at path, or nil.
func (d *Draft) List(path string) []map[string]any {
	switch v := d.Get(path).(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil
			}
			out = append(out, m)
		}
		return out
	}
	return nil
}

// Clear resets the named top-level fields to their empty defaults: strings to
// "", bools to false, slices to nil, nested maps to empty. Unknown fields are
// removed entirely. Used when an optional step is skipped.
func (d *Draft) Clear(names ...string) {
	for _, name := range names {
		switch d.fields[name].(type) {
		case string:
			d.fields[name] = ""
		case bool:
			d.fields[name] = false
		case map[string]any:
			d.fields[name] = map[string]any{}
		case []any, []string, []map[string]any:
			d.fields[name] = nil
		default:
			delete(d.fields, name)
		}
	}
}

// Fields returns a deep copy of all fields, used to build submission payloads.
func (d *Draft) Fields() map[string]any {
	return deepCopyMap(d.fields)
}

// Snapshot takes an immutable deep copy of the Draft's current values.
// Edit-mode sessions snapshot once after the initial load and compare
// against it for the unsaved-changes affordance.
func (d *Draft) Snapshot() *Snapshot {
	return &Snapshot{fields: deepCopyMap(d.fields)}
}

// Snapshot is a frozen copy of a Draft, never mutated after creation.
type Snapshot struct {
	fields map[string]any
}

// Changed reports whether the live Draft differs from the snapshot on any
// field. Scalars compare by equality; slices and nested maps compare
// structurally and order-sensitively. Mutating a field and mutating it back
// to the snapshot value yields false again.
func (s *Snapshot) Changed(d *Draft) bool {
	if len(s.fields) != len(d.fields) {
		return true
	}
	for k, v := range s.fields {
		current, ok := d.fields[k]
		if !ok || !equalValue(v, current) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, present := bv[k]
			if !present || !equalValue(v, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []map[string]any:
		bv, ok := b.([]map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func deepCopyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = deepCopyMap(item)
		}
		return out
	default:
		return v
	}
}
