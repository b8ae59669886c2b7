package pathexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrNotAddressable is returned by Set when a path cannot be written.
var ErrNotAddressable = errors.New("pathexpr: path is not addressable")

// Lookup reads a concrete path (no wildcards) from root. An exact key match on
// a flat map wins over dotted traversal, so values keyed "cta.headline" are
// found as-is.
func Lookup(path string, root any) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if values, ok := root.(map[string]any); ok {
		if v, exists := values[path]; exists {
			return v, true
		}
	}

	segments, err := ParseSegments(path)
	if err != nil {
		return nil, false
	}
	current := root
	for _, seg := range segments {
		if seg.Wildcard {
			return nil, false
		}
		next, ok := child(current, seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set writes value at a concrete path inside a tree of map[string]any and
// []any, creating intermediate maps for missing object keys. Slices are never
// grown.
func Set(root any, path string, value any) error {
	segments, err := ParseSegments(path)
	if err != nil {
		return fmt.Errorf("pathexpr: set %q: %w", path, err)
	}
	for _, seg := range segments {
		if seg.Wildcard {
			return fmt.Errorf("pathexpr: set %q: wildcard segments cannot be written", path)
		}
	}

	current := root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := child(current, seg)
		if !ok || next == nil {
			container, isMap := current.(map[string]any)
			if !isMap {
				return fmt.Errorf("%w: %q at %q", ErrNotAddressable, path, seg.Name)
			}
			created := make(map[string]any)
			container[seg.Name] = created
			next = created
		}
		current = next
	}

	last := segments[len(segments)-1]
	switch typed := current.(type) {
	case map[string]any:
		typed[last.Name] = value
		return nil
	case []any:
		if last.IsIndex && last.Index < len(typed) {
			typed[last.Index] = value
			return nil
		}
		return fmt.Errorf("%w: %q index out of range", ErrNotAddressable, path)
	default:
		return fmt.Errorf("%w: %q holds %T", ErrNotAddressable, path, current)
	}
}

func child(current any, seg Segment) (any, bool) {
	switch typed := current.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := typed[seg.Name]
		return v, ok
	case map[string]string:
		v, ok := typed[seg.Name]
		return v, ok
	case []any:
		if !seg.IsIndex || seg.Index >= len(typed) {
			return nil, false
		}
		return typed[seg.Index], true
	case []map[string]any:
		if !seg.IsIndex || seg.Index >= len(typed) {
			return nil, false
		}
		return typed[seg.Index], true
	case []string:
		if !seg.IsIndex || seg.Index >= len(typed) {
			return nil, false
		}
		return typed[seg.Index], true
	}
	return reflectChild(reflect.ValueOf(current), seg)
}

func elements(current any) ([]any, bool) {
	switch typed := current.(type) {
	case nil:
		return nil, false
	case []any:
		return typed, true
	case []map[string]any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out, true
	case []string:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out, true
	}

	rv := indirect(reflect.ValueOf(current))
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func reflectChild(rv reflect.Value, seg Segment) (any, bool) {
	rv = indirect(rv)
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg.Name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if !seg.IsIndex || seg.Index >= rv.Len() {
			return nil, false
		}
		return rv.Index(seg.Index).Interface(), true
	case reflect.Struct:
		return structField(rv, seg.Name)
	default:
		return nil, false
	}
}

func structField(rv reflect.Value, name string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		if jsonName(field) == name || field.Name == name {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
