package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/hbs/log"
)

var (
	errArgCount = errors.New("wrong number of arguments")
	errNotBlock = errors.New("must be used as a block")
)

// Builtins returns the helpers registered by [New]: the block helpers
// "if", "unless", "each", and "with", the "lookup" and "log" helpers, and
// the comparison helpers.
func Builtins() map[string]Helper {
	h := map[string]Helper{
		"if":     HelperFunc(ifHelper),
		"unless": HelperFunc(unlessHelper),
		"each":   HelperFunc(eachHelper),
		"with":   HelperFunc(withHelper),
		"lookup": HelperFunc(lookupHelper),
		"log":    HelperFunc(logHelper),
	}

	for name, fn := range Conditionals() {
		h[name] = fn
	}

	return h
}

// branch renders the body if cond holds and the inverse otherwise.
// Used inline, it returns the second or third argument instead, or cond
// itself if they are absent.
func branch(cond bool, opts *Options, first int) (any, error) {
	if opts.IsBlock() {
		if cond {
			return opts.Fn()
		}

		return opts.Inverse()
	}

	if len(opts.Params) <= first {
		return cond, nil
	}

	if cond {
		return opts.Param(first), nil
	}

	return opts.Param(first + 1), nil
}

func argCount(opts *Options, n int) error {
	if len(opts.Params) != n {
		return fmt.Errorf("%w: %s expects %d, got %d", errArgCount, opts.Name, n, len(opts.Params))
	}

	return nil
}

// ifHelper renders its body when the argument is truthy.
// With includeZero=true a numeric zero counts as truthy.
func ifHelper(value any, opts *Options) (any, error) {
	if len(opts.Params) == 0 {
		return nil, argCount(opts, 1)
	}

	return branch(condition(value, opts), opts, 1)
}

func unlessHelper(value any, opts *Options) (any, error) {
	if len(opts.Params) == 0 {
		return nil, argCount(opts, 1)
	}

	return branch(!condition(value, opts), opts, 1)
}

func condition(value any, opts *Options) bool {
	if IsTruthy(value) {
		return true
	}

	return IsTruthy(opts.HashValue("includeZero")) && isZeroNumber(value)
}

// eachHelper renders its body once per element of a list or member of a map
// or struct, with @index, @key, @first, and @last set. Block parameters bind
// the element and its index or key.
func eachHelper(value any, opts *Options) (any, error) {
	if err := argCount(opts, 1); err != nil {
		return nil, err
	}

	if !opts.IsBlock() {
		return nil, fmt.Errorf("%s %w", opts.Name, errNotBlock)
	}

	if !IsTruthy(value) {
		return opts.Inverse()
	}

	var sb strings.Builder

	if list, ok := iterable(value); ok {
		n := list.Len()

		for i := range n {
			elem := list.Index(i).Interface()
			data := map[string]any{
				"index": i,
				"key":   i,
				"first": i == 0,
				"last":  i == n-1,
			}

			out, err := opts.FnCtx(opts.Frame(elem, data, elem, i))
			if err != nil {
				return nil, err
			}

			sb.WriteString(out)
		}

		if n == 0 {
			return opts.Inverse()
		}

		return SafeString(sb.String()), nil
	}

	props, ok := opts.Context.Properties(value)
	if !ok || len(props) == 0 {
		return opts.Inverse()
	}

	for i, p := range props {
		data := map[string]any{
			"index": i,
			"key":   p.Name,
			"first": i == 0,
			"last":  i == len(props)-1,
		}

		out, err := opts.FnCtx(opts.Frame(p.Value, data, p.Value, p.Name))
		if err != nil {
			return nil, err
		}

		sb.WriteString(out)
	}

	return SafeString(sb.String()), nil
}

// withHelper renders its body in a scope for the argument, or the inverse
// if the argument is falsy.
func withHelper(value any, opts *Options) (any, error) {
	if err := argCount(opts, 1); err != nil {
		return nil, err
	}

	if !opts.IsBlock() {
		return nil, fmt.Errorf("%s %w", opts.Name, errNotBlock)
	}

	if !IsTruthy(value) {
		return opts.Inverse()
	}

	return opts.FnCtx(opts.Frame(value, nil, value))
}

// lookupHelper resolves a dynamic property: {{lookup obj key}}.
func lookupHelper(value any, opts *Options) (any, error) {
	if err := argCount(opts, 2); err != nil {
		return nil, err
	}

	key := Stringify(opts.Param(1))

	v, ok := opts.Context.Resolve(value, key)
	if !ok {
		return nil, nil
	}

	return v, nil
}

// logHelper writes its arguments to the engine logger at the level named
// by the "level" hash argument (default "info").
func logHelper(_ any, opts *Options) (any, error) {
	part := make([]string, len(opts.Params))
	for i, p := range opts.Params {
		part[i] = Stringify(p)
	}

	level := log.ParseLevel(opts.HashString("level", log.LevelInfo.String()))

	opts.Logger().LogContext(opts.Ctx(), level, strings.Join(part, " "),
		slog.String("helper", opts.Name),
	)

	return nil, nil
}
