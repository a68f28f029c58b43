package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"

	"github.com/ardnew/hbs/log"
)

// Data formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// formatOf returns the data format implied by a file name, or "" when the
// extension is not recognized.
func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// Decode reads a data model from r.
//
// JSON documents decode to a [gjson.Result], which templates traverse
// through the JSON resolver. YAML documents decode to native maps and
// slices. An empty format selects JSON when the input is valid JSON and YAML
// otherwise.
func Decode(ctx context.Context, r io.Reader, format string) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrReadData.Wrap(err)
	}

	if format == "" {
		format = FormatYAML
		if gjson.ValidBytes(data) {
			format = FormatJSON
		}
	}

	switch format {
	case FormatJSON:
		if !gjson.ValidBytes(data) {
			return nil, ErrDataFormat.With(slog.String("format", format))
		}

		return gjson.ParseBytes(data), nil

	case FormatYAML:
		var v any
		if err := yaml.UnmarshalContext(ctx, data, &v); err != nil {
			return nil, ErrDataFormat.Wrap(err).With(slog.String("format", format))
		}

		return v, nil

	default:
		return nil, ErrDataFormat.With(slog.String("format", format))
	}
}

// LoadModel decodes each source and merges the results in order, then
// applies the assignments in set. Later values override earlier ones; maps
// merge recursively.
//
// A single source without assignments is returned as decoded.
func LoadModel(ctx context.Context, srcs []Source, set map[string]string) (any, error) {
	var model any

	for _, src := range srcs {
		v, err := Decode(ctx, src, formatOf(src.Name))
		if err != nil {
			return nil, ErrReadData.Wrap(err).With(slog.String("source", src.Name))
		}

		log.TraceContext(ctx, "data loaded",
			slog.String("source", src.Name),
			slog.String("type", typeName(v)),
		)

		model = merge(model, v)
	}

	for _, key := range slices.Sorted(maps.Keys(set)) {
		model = merge(model, assignment(key, set[key]))
	}

	return model, nil
}

// assignment returns a model setting the dotted path key to value. The value
// is parsed as a YAML scalar, falling back to the literal text.
func assignment(key, value string) any {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		v = value
	}

	parts := strings.Split(key, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		v = map[string]any{parts[i]: v}
	}

	return v
}

// merge returns src merged over dst. Maps merge key by key; any other src
// replaces dst.
func merge(dst, src any) any {
	if dst == nil {
		return src
	}

	d, ok := native(dst).(map[string]any)
	if !ok {
		return src
	}

	s, ok := native(src).(map[string]any)
	if !ok {
		return src
	}

	out := maps.Clone(d)
	for k, v := range s {
		out[k] = merge(out[k], v)
	}

	return out
}

// native converts a decoded value to plain maps and slices.
func native(v any) any {
	switch v := v.(type) {
	case gjson.Result:
		return v.Value()

	case map[string]any:
		return v

	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = e
		}

		return m

	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case gjson.Result:
		return "json"
	case map[string]any, map[any]any:
		return "map"
	case []any:
		return "list"
	default:
		return "scalar"
	}
}
