package resolver

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted for field names.
// A tag value of "-" hides the field.
const TagName = "hbs"

// Field resolves names as exported struct fields, including fields promoted
// from embedded structs.
//
// A name matches a field whose tag equals it, whose name equals it, or whose
// name equals it ignoring case, in that order.
type Field struct {
	Cache *MemberCache
}

// Resolve implements [Resolver].
func (f Field) Resolve(model any, name string) (any, bool) {
	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	t := v.Type()
	m := f.Cache.load(
		memberKey{typ: t, kind: fieldMember, name: name},
		func() member { return lookupField(t, name) },
	)

	if !m.found {
		return nil, false
	}

	fv, err := v.FieldByIndexErr(m.index)
	if err != nil {
		// nil embedded pointer
		return nil, false
	}

	return fv.Interface(), true
}

// ResolveThis implements [Resolver].
func (Field) ResolveThis(any) (any, bool) { return nil, false }

// Properties implements [Resolver]. Fields are in declaration order.
func (Field) Properties(model any) ([]Property, bool) {
	v := indirect(reflect.ValueOf(model))
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	var props []Property

	for _, sf := range reflect.VisibleFields(v.Type()) {
		name, ok := fieldName(sf)
		if !ok {
			continue
		}

		fv, err := v.FieldByIndexErr(sf.Index)
		if err != nil {
			continue
		}

		props = append(props, Property{Name: name, Value: fv.Interface()})
	}

	return props, true
}

// fieldName returns the template name of a field, or false if the field is
// not visible to templates.
func fieldName(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() || sf.Anonymous {
		return "", false
	}

	tag, _, _ := strings.Cut(sf.Tag.Get(TagName), ",")

	switch tag {
	case "-":
		return "", false
	case "":
		return sf.Name, true
	default:
		return tag, true
	}
}

func lookupField(t reflect.Type, name string) member {
	fields := reflect.VisibleFields(t)

	match := []func(reflect.StructField) bool{
		func(sf reflect.StructField) bool {
			tag, _, _ := strings.Cut(sf.Tag.Get(TagName), ",")

			return tag == name
		},
		func(sf reflect.StructField) bool { return sf.Name == name },
		func(sf reflect.StructField) bool { return strings.EqualFold(sf.Name, name) },
	}

	for _, fn := range match {
		for _, sf := range fields {
			if _, ok := fieldName(sf); !ok {
				continue
			}

			if fn(sf) {
				return member{index: sf.Index, found: true}
			}
		}
	}

	return member{}
}
