// Package celhelper defines template helpers as CEL programs.
//
// Programs are checked against the variables described in package [helper],
// with value and this dynamically typed:
//
//	{{#big count}}...{{/big}}    with big   = "value > 100"
//	{{greet name}}               with greet = "'hello ' + value"
//	{{pick k=1}}                 with pick  = "hash.k"
package celhelper

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/ardnew/hbs/helper"
	"github.com/ardnew/hbs/lang"
	"github.com/ardnew/hbs/pkg"
)

// Env is a CEL environment declaring the helper variables.
type Env struct {
	env *cel.Env
}

// NewEnv returns an environment declaring the helper variables, extended by
// opts (e.g. cel-go extension libraries).
func NewEnv(opts ...cel.EnvOption) (*Env, error) {
	decls := []cel.EnvOption{
		cel.Variable(helper.VarValue, cel.DynType),
		cel.Variable(helper.VarParams, cel.ListType(cel.DynType)),
		cel.Variable(helper.VarHash, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(helper.VarThis, cel.DynType),
		cel.Variable(helper.VarBlock, cel.BoolType),
	}

	env, err := cel.NewEnv(append(decls, opts...)...)
	if err != nil {
		return nil, pkg.ErrCompile.Wrap(err)
	}

	return &Env{env: env}, nil
}

var defaultEnv = sync.OnceValues(func() (*Env, error) { return NewEnv() })

// Helper is a [lang.Helper] evaluating a compiled CEL program.
type Helper struct {
	source  string
	program cel.Program
}

// New compiles source into a helper using the default environment.
func New(source string) (*Helper, error) {
	env, err := defaultEnv()
	if err != nil {
		return nil, err
	}

	return env.New(source)
}

// New compiles source into a helper.
func (e *Env) New(source string) (*Helper, error) {
	program, err := e.program(source)
	if err != nil {
		return nil, pkg.ErrCompile.Wrap(err)
	}

	return &Helper{source: source, program: program}, nil
}

// Compile compiles a set of named programs. The first failure is returned
// with the name of its helper.
func (e *Env) Compile(sources map[string]string) (map[string]lang.Helper, error) {
	helpers := make(map[string]lang.Helper, len(sources))

	for _, name := range slices.Sorted(maps.Keys(sources)) {
		program, err := e.program(sources[name])
		if err != nil {
			return nil, pkg.ErrCompile.Wrapf("helper %q", name).Wrap(err)
		}

		helpers[name] = &Helper{source: sources[name], program: program}
	}

	return helpers, nil
}

// Compile compiles a set of named programs using the default environment.
func Compile(sources map[string]string) (map[string]lang.Helper, error) {
	env, err := defaultEnv()
	if err != nil {
		return nil, err
	}

	return env.Compile(sources)
}

func (e *Env) program(source string) (cel.Program, error) {
	ast, issues := e.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	return e.env.Program(ast)
}

// Source returns the program text.
func (h *Helper) Source() string { return h.source }

// Apply implements [lang.Helper].
func (h *Helper) Apply(value any, opts *lang.Options) (any, error) {
	out, _, err := h.program.Eval(helper.Env(value, opts))
	if err != nil {
		return nil, pkg.ErrEvaluate.Wrap(err)
	}

	result := out.Value()

	opts.Logger().TraceContext(opts.Ctx(), "cel helper",
		slog.String("helper", opts.Name),
		slog.String("source", h.source),
		slog.Any("result", result),
	)

	return helper.Result(result, opts)
}
