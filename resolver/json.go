package resolver

import (
	"strings"

	"github.com/tidwall/gjson"
)

// JSON resolves names against parsed JSON documents ([gjson.Result]).
//
// Object members stay [gjson.Result] values so deeper segments keep using
// this resolver. Arrays become []any and scalars become string, float64,
// bool, or nil.
type JSON struct{}

// Resolve implements [Resolver].
func (JSON) Resolve(model any, name string) (any, bool) {
	r, ok := asResult(model)
	if !ok {
		return nil, false
	}

	switch {
	case r.IsObject():
		v := r.Get(escapePath(name))
		if !v.Exists() {
			return nil, false
		}

		return Native(v), true

	case r.IsArray():
		elems := r.Array()
		if name == "length" {
			return len(elems), true
		}

		i, ok := index(name)
		if !ok || i >= len(elems) {
			return nil, false
		}

		return Native(elems[i]), true
	}

	return nil, false
}

// ResolveThis implements [Resolver]. Objects are left as is.
func (JSON) ResolveThis(model any) (any, bool) {
	r, ok := asResult(model)
	if !ok || r.IsObject() {
		return nil, false
	}

	return Native(r), true
}

// Properties implements [Resolver]. Members are in document order.
func (JSON) Properties(model any) ([]Property, bool) {
	r, ok := asResult(model)
	if !ok || !r.IsObject() {
		return nil, false
	}

	var props []Property

	r.ForEach(func(key, value gjson.Result) bool {
		props = append(props, Property{Name: key.String(), Value: Native(value)})

		return true
	})

	return props, true
}

// Native converts a JSON node to the value templates operate on.
func Native(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num
	case gjson.String:
		return r.Str
	}

	if r.IsArray() {
		elems := r.Array()

		list := make([]any, len(elems))
		for i, e := range elems {
			list[i] = Native(e)
		}

		return list
	}

	return r
}

func asResult(model any) (gjson.Result, bool) {
	switch r := model.(type) {
	case gjson.Result:
		return r, r.Exists()
	case *gjson.Result:
		if r == nil {
			return gjson.Result{}, false
		}

		return *r, r.Exists()
	default:
		return gjson.Result{}, false
	}
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
	`=`, `\=`,
	`<`, `\<`,
	`>`, `\>`,
	`%`, `\%`,
)

// escapePath escapes gjson path syntax so name selects a single member.
func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
