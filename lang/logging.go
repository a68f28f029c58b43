package lang

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"
)

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}

func templateAttr(t *Template) slog.Attr {
	if t == nil || t.Name == "" {
		return slog.String("template", "(inline)")
	}

	return slog.String("template", t.Name)
}
