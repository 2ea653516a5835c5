package executor

import (
	"reflect"
	"strconv"
	"strings"
)

// Path locates a value in the response: field response names as strings
// and list indices as ints.
type Path []PathElement

type PathElement any

// String renders p as hero.friends.[0].name.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		switch v := e.(type) {
		case string:
			parts[i] = v
		case int:
			parts[i] = "[" + strconv.Itoa(v) + "]"
		}
	}
	return strings.Join(parts, ".")
}

// with returns a copy of p extended by elem; p is never aliased.
func (p Path) with(elem PathElement) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = elem
	return out
}

// root is the response name of the root field p starts at.
func (p Path) root() string {
	for _, e := range p {
		if name, ok := e.(string); ok {
			return name
		}
	}
	return ""
}

// writeAt stores v at p inside tree. Nothing is written when a parent on the
// way is null or missing, since that parent was nulled after v was queued.
func writeAt(tree map[string]any, p Path, v any) {
	if len(p) == 0 {
		return
	}
	var cur any = tree
	for _, e := range p[:len(p)-1] {
		switch k := e.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return
			}
			cur = m[k]
		case int:
			l, ok := cur.([]any)
			if !ok || k >= len(l) {
				return
			}
			cur = l[k]
		}
	}
	switch k := p[len(p)-1].(type) {
	case string:
		if m, ok := cur.(map[string]any); ok {
			m[k] = v
		}
	case int:
		if l, ok := cur.([]any); ok && k < len(l) {
			l[k] = v
		}
	}
}

// isNullish is true for nil and for typed nil pointers, maps, slices,
// interfaces, funcs and channels.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
