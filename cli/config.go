package cli

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/hbs/pkg"
)

// loadYAML is a [kong.ConfigurationLoader] reading a YAML mapping of flag
// names to values:
//
//	log-level: debug
//	delims: "<% %>"
//	partials:
//	  - ./partials
//	expr:
//	  upper: upper(value)
//
// Keys may use underscores in place of hyphens. Command-line flags override
// configured values, which override the environment. An empty file
// configures nothing.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var values map[string]any

	if err := yaml.NewDecoder(r).Decode(&values); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, pkg.ErrInvalidFormat.Wrapf("configuration").Wrap(err)
	}

	for k, v := range values {
		values[k] = scalars(v)
	}

	return config(values), nil
}

// config implements [kong.Resolver] over a decoded configuration file.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}

// scalars formats numbers as strings, which kong parses into any numeric
// flag type. Lists are converted element-wise.
func scalars(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalars(e)
		}

		return out
	default:
		return v
	}
}
