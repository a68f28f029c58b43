// Package resolver provides strategies for resolving names against models of
// different shapes: maps, lists, struct fields, accessor methods, and JSON
// documents.
//
// A template engine applies an ordered list of resolvers to every path
// segment; the first resolver that reports success wins. A single path may
// therefore traverse a map, then a struct, then a JSON document.
package resolver

import (
	"reflect"
	"strconv"
)

// Resolver resolves names against a model.
//
// Each method reports false when the resolver does not apply to the model or
// the name is unknown (the value is unresolved); callers then try the next
// resolver.
type Resolver interface {
	// Resolve returns the value of the named member of model.
	Resolve(model any, name string) (any, bool)
	// ResolveThis returns the value the model stands for when referenced as
	// a whole (e.g. a JSON scalar node resolves to a Go scalar).
	ResolveThis(model any) (any, bool)
	// Properties returns the ordered (name, value) pairs of model, used when
	// iterating over an object.
	Properties(model any) ([]Property, bool)
}

// Property is a named member of a model.
type Property struct {
	Name  string
	Value any
}

// Defaults returns the default resolver list: [Map], [List], [JSON], [Field],
// and [Method], with the reflective resolvers sharing [DefaultMemberCache].
func Defaults() []Resolver {
	return []Resolver{
		Map{},
		List{},
		JSON{},
		Field{Cache: DefaultMemberCache},
		Method{Cache: DefaultMemberCache},
	}
}

// Resolve applies resolvers in order and returns the first resolved value.
func Resolve(resolvers []Resolver, model any, name string) (any, bool) {
	if model == nil {
		return nil, false
	}

	for _, r := range resolvers {
		if v, ok := r.Resolve(model, name); ok {
			return v, true
		}
	}

	return nil, false
}

// ResolveThis applies resolvers in order and returns the first explicit
// mapping of model, or model itself if no resolver provides one.
func ResolveThis(resolvers []Resolver, model any) any {
	if model == nil {
		return nil
	}

	for _, r := range resolvers {
		if v, ok := r.ResolveThis(model); ok {
			return v
		}
	}

	return model
}

// Properties applies resolvers in order and returns the first property set.
func Properties(resolvers []Resolver, model any) ([]Property, bool) {
	if model == nil {
		return nil, false
	}

	for _, r := range resolvers {
		if p, ok := r.Properties(model); ok {
			return p, true
		}
	}

	return nil, false
}

// indirect dereferences pointers and interfaces until it reaches a concrete
// value. The result is invalid if a nil pointer is encountered.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// index parses name as a non-negative list index.
func index(name string) (int, bool) {
	if name == "" || name[0] == '+' || name[0] == '-' {
		return 0, false
	}

	i, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}

	return i, true
}
