// Package exprhelper defines template helpers as expr-lang programs.
//
// A program sees the variables described in package [helper]:
//
//	{{upper name}}               with upper = "upper(value)"
//	{{#when (gt count 3)}}...    with when  = "value == true"
//	{{join a b}}                 with join  = "join(params, \"-\")"
package exprhelper

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/hbs/helper"
	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/pkg"
)

// Helper is a [lang.Helper] evaluating a compiled expr-lang program.
type Helper struct {
	source  string
	program *vm.Program
}

// env is the program environment. The fields mirror the variables of
// [helper.Env]; value and this are dynamically typed.
type env struct {
	Value  any            `expr:"value"`
	Params []any          `expr:"params"`
	Hash   map[string]any `expr:"hash"`
	This   any            `expr:"this"`
	Block  bool           `expr:"block"`
}

func envOf(value any, opts *lang.Options) env {
	vars := helper.Env(value, opts)

	params, _ := vars[helper.VarParams].([]any)
	hash, _ := vars[helper.VarHash].(map[string]any)
	block, _ := vars[helper.VarBlock].(bool)

	return env{
		Value:  vars[helper.VarValue],
		Params: params,
		Hash:   hash,
		This:   vars[helper.VarThis],
		Block:  block,
	}
}

// New compiles source into a helper.
func New(source string, opts ...expr.Option) (*Helper, error) {
	program, err := compile(source, opts)
	if err != nil {
		return nil, pkg.ErrCompile.Wrap(err)
	}

	return &Helper{source: source, program: program}, nil
}

func compile(source string, opts []expr.Option) (*vm.Program, error) {
	return expr.Compile(source, append([]expr.Option{expr.Env(env{})}, opts...)...)
}

// Must is like [New] but panics if source does not compile.
func Must(source string, opts ...expr.Option) *Helper {
	h, err := New(source, opts...)
	if err != nil {
		panic(err)
	}

	return h
}

// Source returns the program text.
func (h *Helper) Source() string { return h.source }

// Apply implements [lang.Helper].
func (h *Helper) Apply(value any, opts *lang.Options) (any, error) {
	result, err := vm.Run(h.program, envOf(value, opts))
	if err != nil {
		return nil, pkg.ErrEvaluate.Wrap(err)
	}

	opts.Logger().TraceContext(opts.Ctx(), "expr helper",
		slog.String("helper", opts.Name),
		slog.String("source", h.source),
		slog.Any("result", result),
	)

	return helper.Result(result, opts)
}

// Compile compiles a set of named programs. The first failure is returned
// with the name of its helper.
func Compile(sources map[string]string, opts ...expr.Option) (map[string]lang.Helper, error) {
	helpers := make(map[string]lang.Helper, len(sources))

	for _, name := range slices.Sorted(maps.Keys(sources)) {
		program, err := compile(sources[name], opts)
		if err != nil {
			return nil, pkg.ErrCompile.Wrapf("helper %q", name).Wrap(err)
		}

		helpers[name] = &Helper{source: sources[name], program: program}
	}

	return helpers, nil
}
