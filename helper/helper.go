// Package helper holds what the scripting helper bridges share: the
// variables a script sees and how a script result drives a block.
//
// A script is evaluated with these variables:
//
//	value   the first positional argument (nil when there is none)
//	params  all positional arguments
//	hash    the key=value arguments
//	this    the model of the scope the tag appears in
//	block   whether the helper was invoked by a section tag
package helper

import (
	"github.com/ardnew/hbs/lang"
)

// Variable names bound in every script environment.
const (
	VarValue  = "value"
	VarParams = "params"
	VarHash   = "hash"
	VarThis   = "this"
	VarBlock  = "block"
)

// Env returns the variables of a script invoked with value and opts.
func Env(value any, opts *lang.Options) map[string]any {
	params := opts.Params
	if params == nil {
		params = []any{}
	}

	hash := opts.Hash
	if hash == nil {
		hash = map[string]any{}
	}

	var this any
	if opts.Context != nil {
		this = opts.Context.Model()
	}

	return map[string]any{
		VarValue:  value,
		VarParams: params,
		VarHash:   hash,
		VarThis:   this,
		VarBlock:  opts.IsBlock(),
	}
}

// Result applies the result of a script to the invocation.
//
// Inline, the result is returned as is. As a block, true renders the body
// in the tag's scope, another truthy result renders the body with the
// result as its scope and first block parameter, and a falsy result renders
// the inverse.
func Result(result any, opts *lang.Options) (any, error) {
	if !opts.IsBlock() {
		return result, nil
	}

	switch {
	case result == true:
		return out(opts.Fn())

	case lang.IsTruthy(result):
		return out(opts.FnCtx(opts.Frame(result, nil, result)))

	default:
		return out(opts.Inverse())
	}
}

func out(s string, err error) (any, error) {
	if err != nil {
		return nil, err
	}

	return lang.SafeString(s), nil
}
