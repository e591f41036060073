package manifest

import (
	"fmt"
	"sort"
)

// Top-level manifest sections.
const (
	SectionServices = "services"
	SectionVolumes  = "volumes"
	SectionNetworks = "networks"
)

// Tree is the generic attribute tree of one manifest document.
type Tree map[string]any

// Section returns the named top-level mapping, or nil when it is absent or
// not a mapping.
func (t Tree) Section(name string) map[string]any {
	if t == nil {
		return nil
	}
	m, _ := t[name].(map[string]any)
	return m
}

// Services returns the service entries keyed by service name.
func (t Tree) Services() map[string]any {
	return t.Section(SectionServices)
}

// Keys returns the sorted keys of a top-level mapping section.
func (t Tree) Keys(section string) []string {
	m := t.Section(section)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup walks nested mappings along path.
func Lookup(value any, path ...string) (any, bool) {
	cur := value
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the scalar at path as a string. Numbers are formatted the
// way compose reads them; ok is false for missing, empty or non-scalar
// values.
func String(value any, path ...string) (string, bool) {
	v, ok := Lookup(value, path...)
	if !ok {
		return "", false
	}
	return text(v)
}

func text(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case int, int64, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

// Strings returns the non-empty scalar entries of the sequence at path.
func Strings(value any, path ...string) []string {
	v, ok := Lookup(value, path...)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := text(item); ok {
			out = append(out, s)
		}
	}
	return out
}
