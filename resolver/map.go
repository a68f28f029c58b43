package resolver

import (
	"cmp"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// Map resolves names as keys of maps with string (or integer) keys.
type Map struct{}

// Resolve implements [Resolver].
func (Map) Resolve(model any, name string) (any, bool) {
	switch m := model.(type) {
	case map[string]any:
		v, ok := m[name]

		return v, ok

	case map[string]string:
		v, ok := m[name]

		return v, ok
	}

	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Map {
		return nil, false
	}

	key, ok := mapKey(v.Type().Key(), name)
	if !ok {
		return nil, false
	}

	elem := v.MapIndex(key)
	if !elem.IsValid() {
		return nil, false
	}

	return elem.Interface(), true
}

// ResolveThis implements [Resolver].
func (Map) ResolveThis(any) (any, bool) { return nil, false }

// Properties implements [Resolver]. Entries are ordered by key.
func (Map) Properties(model any) ([]Property, bool) {
	if m, ok := model.(map[string]any); ok {
		props := make([]Property, 0, len(m))
		for _, k := range slices.Sorted(maps.Keys(m)) {
			props = append(props, Property{Name: k, Value: m[k]})
		}

		return props, true
	}

	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Map {
		return nil, false
	}

	props := make([]Property, 0, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		props = append(props, Property{
			Name:  keyString(iter.Key()),
			Value: iter.Value().Interface(),
		})
	}

	slices.SortFunc(props, func(a, b Property) int {
		return cmp.Compare(a.Name, b.Name)
	})

	return props, true
}

func mapKey(t reflect.Type, name string) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(name).Convert(t), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}

		return reflect.ValueOf(i).Convert(t), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(name, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}

		return reflect.ValueOf(u).Convert(t), true

	case reflect.Interface:
		if t.NumMethod() == 0 {
			return reflect.ValueOf(name), true
		}
	}

	return reflect.Value{}, false
}

func keyString(k reflect.Value) string {
	k = indirect(k)

	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	case reflect.Invalid:
		return ""
	default:
		return k.String()
	}
}

// List resolves numeric indexes and "length" against slices and arrays.
// An out-of-range index is unresolved.
type List struct{}

// Resolve implements [Resolver].
func (List) Resolve(model any, name string) (any, bool) {
	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}

	if name == "length" {
		return v.Len(), true
	}

	i, ok := index(name)
	if !ok || i >= v.Len() {
		return nil, false
	}

	return v.Index(i).Interface(), true
}

// ResolveThis implements [Resolver].
func (List) ResolveThis(any) (any, bool) { return nil, false }

// Properties implements [Resolver]. Names are the element indexes.
func (List) Properties(model any) ([]Property, bool) {
	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}

	props := make([]Property, v.Len())
	for i := range props {
		props[i] = Property{Name: strconv.Itoa(i), Value: v.Index(i).Interface()}
	}

	return props, true
}
