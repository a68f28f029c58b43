// Package cli contains the command line interface for hbs.
//
// # Usage
//
// The default command renders a template against merged data files:
//
//	hbs -d site.yaml -d page.json page.hbs
//	hbs -d - -s user.name=ada -P ./partials page.hbs < data.json
//
// # Configuration
//
// Engine flags take their defaults from HBS_* environment variables, which a
// YAML configuration file in the user config directory overrides, which
// command-line flags override in turn. The init command writes the current
// values to that file:
//
//	HBS_DELIMS='<% %>' hbs init
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o hbs .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/hbs/pprof)
package cli
