package lang

import (
	"log/slog"
	"maps"

	"github.com/ardnew/hbs/resolver"
)

// Context is one scope of the lookup chain used while rendering.
//
// A Context pairs a model with data variables ("@index", "@root", …),
// local names (block parameters, partial hash arguments), and the resolvers
// used to look names up in the model. Each scope points to its parent; no
// scope refers to its children.
//
// A Context is not modified after it is created and is valid only for the
// duration of the render call that created it.
type Context struct {
	model     any
	data      map[string]any
	locals    map[string]any
	parent    *Context
	resolvers []resolver.Resolver
}

// NewContext creates a root scope for model. The "@root" data variable
// refers to model. With no resolvers, [resolver.Defaults] is used.
func NewContext(model any, resolvers ...resolver.Resolver) *Context {
	if len(resolvers) == 0 {
		resolvers = resolver.Defaults()
	}

	return &Context{
		model:     model,
		data:      map[string]any{"root": model},
		resolvers: resolvers,
	}
}

// Push creates a child scope for model with the given data variables.
// The child inherits the receiver's resolvers unless others are given.
func (c *Context) Push(
	model any,
	data map[string]any,
	resolvers ...resolver.Resolver,
) *Context {
	if len(resolvers) == 0 {
		resolvers = c.resolvers
	}

	return &Context{
		model:     model,
		data:      data,
		parent:    c,
		resolvers: resolvers,
	}
}

// Model returns the model of the scope.
func (c *Context) Model() any { return c.model }

// Parent returns the enclosing scope, or nil for the root.
func (c *Context) Parent() *Context { return c.parent }

// Root returns the outermost scope.
func (c *Context) Root() *Context {
	for c.parent != nil {
		c = c.parent
	}

	return c
}

// Resolvers returns the resolvers of the scope.
func (c *Context) Resolvers() []resolver.Resolver { return c.resolvers }

// Data returns the nearest data variable named name, trying "@name" before
// "name" in each scope.
func (c *Context) Data(name string) (any, bool) {
	for scope := c; scope != nil; scope = scope.parent {
		if v, ok := scope.data["@"+name]; ok {
			return v, true
		}

		if v, ok := scope.data[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Local returns the nearest local name.
func (c *Context) Local(name string) (any, bool) {
	for scope := c; scope != nil; scope = scope.parent {
		if v, ok := scope.locals[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Resolve resolves name against model with the scope's resolvers.
func (c *Context) Resolve(model any, name string) (any, bool) {
	return resolver.Resolve(c.resolvers, model, name)
}

// ResolveThis maps model to the value it stands for as a whole.
func (c *Context) ResolveThis(model any) any {
	return resolver.ResolveThis(c.resolvers, model)
}

// Properties returns the ordered members of model.
func (c *Context) Properties(model any) ([]resolver.Property, bool) {
	return resolver.Properties(c.resolvers, model)
}

// Get returns the value of the path expression, or nil if it is invalid or
// unresolved.
func (c *Context) Get(path string) any {
	v, _ := c.Lookup(path)

	return v
}

// Lookup returns the value of the path expression. Unresolved references
// yield nil without error; invalid paths and paths that climb above the
// root scope yield [ErrPath].
func (c *Context) Lookup(path string) (any, error) {
	p, err := CompilePath(path)
	if err != nil {
		return nil, err
	}

	v, _, err := c.Eval(p)

	return v, err
}

// Eval evaluates a compiled path. The boolean result is false if the
// reference is unresolved.
func (c *Context) Eval(p *Path) (any, bool, error) {
	v, ok, err := p.chain.eval(c, c.model)
	if err != nil {
		return nil, false, WrapError(err).With(slog.String("path", p.Original))
	}

	return v, ok, nil
}

// bind sets the local names of a freshly pushed scope, pairing names with
// values in order.
func (c *Context) bind(names []string, values ...any) *Context {
	if n := min(len(names), len(values)); n > 0 {
		c.locals = make(map[string]any, n)
		for i := range n {
			c.locals[names[i]] = values[i]
		}
	}

	return c
}

// sibling returns a copy of the scope with additional local names. The copy
// has the same parent, so "../" is unaffected.
func (c *Context) sibling(locals map[string]any) *Context {
	merged := maps.Clone(c.locals)
	if merged == nil {
		merged = make(map[string]any, len(locals))
	}

	maps.Copy(merged, locals)

	next := *c
	next.locals = merged

	return &next
}
