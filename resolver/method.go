package resolver

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeFor[error]()

// Method resolves names by calling exported accessor methods.
//
// An accessor takes no arguments and returns either a value or a value and
// an error. The name "title" matches a method named Title, GetTitle, or
// IsTitle (ignoring case). A call that returns a non-nil error is
// unresolved.
//
// Methods with pointer receivers are found on addressable copies of
// non-pointer models.
type Method struct {
	Cache *MemberCache
}

// Resolve implements [Resolver].
func (r Method) Resolve(model any, name string) (any, bool) {
	v := reflect.ValueOf(model)
	if !v.IsValid() || name == "" {
		return nil, false
	}

	if fn, ok := r.method(v, name); ok {
		return call(fn)
	}

	if v.Kind() == reflect.Pointer {
		return nil, false
	}

	// Retry with a pointer to a copy so pointer-receiver methods are visible.
	p := reflect.New(v.Type())
	p.Elem().Set(v)

	if fn, ok := r.method(p, name); ok {
		return call(fn)
	}

	return nil, false
}

// ResolveThis implements [Resolver].
func (Method) ResolveThis(any) (any, bool) { return nil, false }

// Properties implements [Resolver]. Only Get- and Is-prefixed accessors are
// enumerated, named without their prefix.
func (Method) Properties(model any) ([]Property, bool) {
	v := reflect.ValueOf(model)
	if !v.IsValid() || v.NumMethod() == 0 {
		return nil, false
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}

	var props []Property

	t := v.Type()
	for i := range t.NumMethod() {
		m := t.Method(i)
		if !isAccessor(m.Type, 1) {
			continue
		}

		name, ok := trimAccessorPrefix(m.Name)
		if !ok {
			continue
		}

		if value, ok := call(v.Method(i)); ok {
			props = append(props, Property{Name: name, Value: value})
		}
	}

	if len(props) == 0 {
		return nil, false
	}

	return props, true
}

func (r Method) method(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	if t.NumMethod() == 0 {
		return reflect.Value{}, false
	}

	m := r.Cache.load(
		memberKey{typ: t, kind: methodMember, name: name},
		func() member { return lookupMethod(t, name) },
	)

	if !m.found {
		return reflect.Value{}, false
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return reflect.Value{}, false
	}

	return v.Method(m.method), true
}

func call(fn reflect.Value) (any, bool) {
	out := fn.Call(nil)

	if len(out) == 2 && !out[1].IsNil() {
		return nil, false
	}

	return out[0].Interface(), true
}

func lookupMethod(t reflect.Type, name string) member {
	candidates := []string{name, "Get" + name, "Is" + name}

	for _, want := range candidates {
		for i := range t.NumMethod() {
			m := t.Method(i)
			if strings.EqualFold(m.Name, want) && isAccessor(m.Type, 1) {
				return member{method: i, found: true}
			}
		}
	}

	return member{}
}

// isAccessor reports whether a method type takes only its receiver (in
// counts the receiver) and returns a value, optionally with an error.
func isAccessor(ft reflect.Type, in int) bool {
	if ft.NumIn() != in {
		return false
	}

	switch ft.NumOut() {
	case 1:
		return true
	case 2:
		return ft.Out(1) == errorType
	default:
		return false
	}
}

func trimAccessorPrefix(name string) (string, bool) {
	for _, prefix := range []string{"Get", "Is"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		if !unicode.IsUpper(r) {
			continue
		}

		return string(unicode.ToLower(r)) + rest[size:], true
	}

	return "", false
}
