package lang

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SafeString is a string that is written without escaping.
type SafeString string

// String implements [fmt.Stringer].
func (s SafeString) String() string { return string(s) }

// IsTruthy reports whether a value selects the main branch of a section.
//
// nil, false, the empty string, numeric zero, and empty slices, arrays, and
// maps are falsy; every other value is truthy.
func IsTruthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case SafeString:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil() && IsTruthy(rv.Elem().Interface())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Chan, reflect.Func:
		return !rv.IsNil()
	default:
		return true
	}
}

// isZeroNumber reports whether v is a numeric zero.
func isZeroNumber(v any) bool {
	f, ok := toFloat(v)

	return ok && f == 0
}

// iterable returns v as a list if it is a slice or array.
func iterable(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice:
		// Byte slices render as text.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return reflect.Value{}, false
		}

		return rv, true
	case reflect.Array:
		return rv, true
	default:
		return reflect.Value{}, false
	}
}

// isMapLike reports whether v enumerates named members (maps and structs).
func isMapLike(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}

		rv = rv.Elem()
	}

	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}

// Stringify converts a value to the text written for it.
// nil renders as the empty string and lists render their elements joined by
// commas.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case SafeString:
		return string(v)
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}

	if list, ok := iterable(v); ok {
		part := make([]string, list.Len())
		for i := range part {
			part[i] = Stringify(list.Index(i).Interface())
		}

		return strings.Join(part, ",")
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}

		return Stringify(rv.Elem().Interface())
	}

	return fmt.Sprint(v)
}

// isSafe reports whether v is written without escaping.
func isSafe(v any) bool {
	_, ok := v.(SafeString)

	return ok
}

// toFloat converts numeric values to float64.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
