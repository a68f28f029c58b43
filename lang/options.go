package lang

import (
	"context"
	"strings"

	"github.com/ardnew/hbs/log"
)

// Options describes a helper invocation.
//
// Fn and Inverse render the block body and its else branch. They are bound
// to the compiled body and the scope of the tag, and are valid only during
// the helper call.
type Options struct {
	// Name is the helper name as written in the tag.
	Name string
	// Params are the evaluated positional arguments.
	Params []any
	// Hash holds the evaluated key=value arguments.
	Hash map[string]any
	// BlockParams are the names declared with "as |a b|".
	BlockParams []string
	// Context is the scope of the tag.
	Context *Context

	r       *renderer
	block   bool
	raw     bool
	body    string
	fn      []Node
	inverse []Node
}

// IsBlock reports whether the helper was invoked by a section tag.
func (o *Options) IsBlock() bool { return o.block }

// Param returns the i-th positional argument, or nil.
func (o *Options) Param(i int) any {
	if i < 0 || i >= len(o.Params) {
		return nil
	}

	return o.Params[i]
}

// HashValue returns the named hash argument, or nil.
func (o *Options) HashValue(key string) any {
	return o.Hash[key]
}

// HashString returns the named hash argument as text, or def if absent.
func (o *Options) HashString(key, def string) string {
	v, ok := o.Hash[key]
	if !ok {
		return def
	}

	return Stringify(v)
}

// Fn renders the block body against the tag's scope.
func (o *Options) Fn() (string, error) {
	return o.FnCtx(o.Context)
}

// FnWith renders the block body against a child scope for model.
func (o *Options) FnWith(model any) (string, error) {
	return o.FnCtx(o.Context.Push(model, nil))
}

// FnCtx renders the block body against c.
func (o *Options) FnCtx(c *Context) (string, error) {
	if o.raw {
		return o.body, nil
	}

	return o.r.capture(c, o.fn)
}

// Inverse renders the else branch against the tag's scope.
func (o *Options) Inverse() (string, error) {
	return o.InverseCtx(o.Context)
}

// InverseCtx renders the else branch against c.
func (o *Options) InverseCtx(c *Context) (string, error) {
	if o.raw {
		return "", nil
	}

	return o.r.capture(c, o.inverse)
}

// Push returns a child of the tag's scope for model with data variables.
func (o *Options) Push(model any, data map[string]any) *Context {
	return o.Context.Push(model, data)
}

// Frame returns a child of the tag's scope for model with data variables,
// binding the declared block parameters to params in order.
func (o *Options) Frame(model any, data map[string]any, params ...any) *Context {
	return o.Context.Push(model, data).bind(o.BlockParams, params...)
}

// Data returns the nearest data variable visible from the tag.
func (o *Options) Data(name string) (any, bool) {
	return o.Context.Data(name)
}

// Escape applies the active escaper.
func (o *Options) Escape(s string) string {
	return o.r.escaper.Escape(s)
}

// Logger returns the engine logger.
func (o *Options) Logger() log.Logger {
	return o.r.engine.logger
}

// Ctx returns the context.Context of the render call.
func (o *Options) Ctx() context.Context {
	return o.r.ctx
}

// String returns the invocation in template syntax.
func (o *Options) String() string {
	part := []string{o.Name}

	for _, p := range o.Params {
		part = append(part, Stringify(p))
	}

	for _, k := range sortedKeys(o.Hash) {
		part = append(part, k+"="+Stringify(o.Hash[k]))
	}

	return strings.Join(part, " ")
}
