package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PartialBlockName is the name under which the content of a partial block
// is available to the partial it calls.
const PartialBlockName = "@partial-block"

// renderer carries the state of one render call. Nested partials and
// captured blocks render with a shallow copy.
type renderer struct {
	engine  *Engine
	ctx     context.Context
	tmpl    *Template
	w       io.Writer
	escaper Escaper
	depth   int
	inline  *inlineScope
	blocks  *partialBlock
}

// inlineScope holds the inline partials defined by one node list.
type inlineScope struct {
	partials map[string]*Template
	parent   *inlineScope
}

func (s *inlineScope) lookup(name string) (*Template, bool) {
	for ; s != nil; s = s.parent {
		if t, ok := s.partials[name]; ok {
			return t, true
		}
	}

	return nil, false
}

// partialBlock is the content of a "{{#> name}}…{{/name}}" block, rendered
// by "{{> @partial-block}}" within the called partial.
type partialBlock struct {
	nodes  []Node
	tmpl   *Template
	inline *inlineScope
	parent *partialBlock
}

// block describes the body of a section tag passed to a helper.
type block struct {
	fn      []Node
	inverse []Node
	params  []string
	raw     bool
	body    string
}

// define returns a scope holding the inline partials in nodes, or parent if
// there are none.
func (r *renderer) define(nodes []Node, parent *inlineScope) *inlineScope {
	var defs map[string]*Template

	for _, n := range nodes {
		in, ok := n.(*InlinePartial)
		if !ok {
			continue
		}

		if defs == nil {
			defs = make(map[string]*Template)
		}

		defs[in.Name] = &Template{Name: r.tmpl.Name, Nodes: in.Body, source: r.tmpl.source}
	}

	if defs == nil {
		return parent
	}

	return &inlineScope{partials: defs, parent: parent}
}

func (r *renderer) render(c *Context, nodes []Node) error {
	saved := r.inline
	r.inline = r.define(nodes, r.inline)

	defer func() { r.inline = saved }()

	for _, n := range nodes {
		if err := r.node(c, n); err != nil {
			return err
		}
	}

	return nil
}

func (r *renderer) node(c *Context, n Node) error {
	switch n := n.(type) {
	case *Text:
		return r.write(n.Value)

	case *Variable:
		return r.variable(c, n)

	case *Section:
		return r.section(c, n)

	case *Partial:
		return r.partial(c, n)

	case *RawBlock:
		return r.rawBlock(c, n)

	case *Comment, *Delimiters, *InlinePartial:
		return nil

	default:
		return r.errorf(n.Pos(), "unknown node %T", n)
	}
}

func (r *renderer) write(s string) error {
	if s == "" {
		return nil
	}

	if _, err := io.WriteString(r.w, s); err != nil {
		return ErrWrite.Wrap(err).With(templateAttr(r.tmpl))
	}

	return nil
}

// capture renders nodes into a string.
func (r *renderer) capture(c *Context, nodes []Node) (string, error) {
	var sb strings.Builder

	sub := *r
	sub.w = &sb

	err := sub.render(c, nodes)

	return sb.String(), err
}

func (r *renderer) variable(c *Context, n *Variable) error {
	v, _, err := r.eval(c, n.Call, n.Position, nil)
	if err != nil {
		return err
	}

	s := Stringify(v)
	if !n.Unescaped && !isSafe(v) {
		s = r.escaper.Escape(s)
	}

	return r.write(s)
}

func (r *renderer) section(c *Context, n *Section) error {
	blk := &block{fn: n.Body, inverse: n.Inverse, params: n.BlockParams}
	if n.Inverted {
		blk.fn, blk.inverse = n.Inverse, n.Body
	}

	v, helper, err := r.eval(c, n.Call, n.Position, blk)
	if err != nil {
		return err
	}

	if helper {
		return r.write(Stringify(v))
	}

	if n.Inverted {
		if IsTruthy(v) {
			return r.render(c, n.Inverse)
		}

		return r.render(c, n.Body)
	}

	return r.blockValue(c, v, blk)
}

// blockValue renders a section by the shape of its value: true renders the
// body in the same scope, a list renders it once per element, any other
// truthy value renders it in a scope for the value, and a falsy value renders
// the inverse.
func (r *renderer) blockValue(c *Context, v any, blk *block) error {
	if b, ok := v.(bool); ok && b {
		return r.render(c, blk.fn)
	}

	if list, ok := iterable(v); ok {
		n := list.Len()
		if n == 0 {
			return r.render(c, blk.inverse)
		}

		for i := range n {
			elem := list.Index(i).Interface()
			data := map[string]any{
				"index": i,
				"first": i == 0,
				"last":  i == n-1,
			}

			if err := r.render(c.Push(elem, data).bind(blk.params, elem, i), blk.fn); err != nil {
				return err
			}
		}

		return nil
	}

	if IsTruthy(v) {
		return r.render(c.Push(v, nil).bind(blk.params, v), blk.fn)
	}

	return r.render(c, blk.inverse)
}

func (r *renderer) rawBlock(c *Context, n *RawBlock) error {
	if !n.Call.Name.Simple() {
		return r.write(n.Body)
	}

	h, ok := r.engine.helper(n.Call.Name.Parts[0])
	if !ok {
		return r.write(n.Body)
	}

	params, hash, err := r.evalArgs(c, n.Call, n.Position)
	if err != nil {
		return err
	}

	v, err := r.invoke(c, n.Call.Name.Original, h, params, hash, n.Position,
		&block{raw: true, body: n.Body})
	if err != nil {
		return err
	}

	return r.write(Stringify(v))
}

// eval evaluates a call. The boolean result reports whether a helper (or
// the missing-helper hook) produced the value.
func (r *renderer) eval(c *Context, call *Call, pos Position, blk *block) (any, bool, error) {
	name := call.Name

	if name.Simple() {
		if h, ok := r.engine.helper(name.Parts[0]); ok {
			params, hash, err := r.evalArgs(c, call, pos)
			if err != nil {
				return nil, false, err
			}

			v, err := r.invoke(c, name.Original, h, params, hash, pos, blk)

			return v, true, err
		}
	}

	if !call.IsSimple() {
		return r.missing(c, call, pos, blk)
	}

	v, ok, err := c.Eval(name)
	if err != nil {
		return nil, false, r.locate(err, pos)
	}

	if !ok && r.engine.missing != nil {
		return r.missing(c, call, pos, blk)
	}

	return v, false, nil
}

// missing handles a call naming no helper. Without a hook it yields nothing.
func (r *renderer) missing(c *Context, call *Call, pos Position, blk *block) (any, bool, error) {
	r.engine.logger.TraceContext(r.ctx, "missing helper",
		slog.String("name", call.Name.Original),
		templateAttr(r.tmpl),
		slog.String("position", pos.String()),
	)

	if r.engine.missing == nil {
		return nil, true, nil
	}

	params, hash, err := r.evalArgs(c, call, pos)
	if err != nil {
		return nil, false, err
	}

	v, err := r.invoke(c, call.Name.Original, r.engine.missing, params, hash, pos, blk)

	return v, true, err
}

func (r *renderer) evalArgs(c *Context, call *Call, pos Position) ([]any, map[string]any, error) {
	var params []any

	if len(call.Params) > 0 {
		params = make([]any, len(call.Params))

		for i, p := range call.Params {
			v, err := r.evalParam(c, p, pos)
			if err != nil {
				return nil, nil, err
			}

			params[i] = v
		}
	}

	hash, err := r.evalHash(c, call.Hash, pos)

	return params, hash, err
}

func (r *renderer) evalHash(c *Context, pairs []HashPair, pos Position) (map[string]any, error) {
	hash := make(map[string]any, len(pairs))

	for _, h := range pairs {
		v, err := r.evalParam(c, h.Value, pos)
		if err != nil {
			return nil, err
		}

		hash[h.Key] = v
	}

	return hash, nil
}

func (r *renderer) evalParam(c *Context, p Param, pos Position) (any, error) {
	switch p := p.(type) {
	case *Literal:
		return p.Value, nil

	case *SubExpr:
		v, _, err := r.eval(c, p.Call, pos, nil)

		return v, err

	case *Path:
		v, _, err := c.Eval(p)
		if err != nil {
			return nil, r.locate(err, pos)
		}

		return v, nil

	default:
		return nil, r.errorf(pos, "unknown parameter %T", p)
	}
}

// invoke applies a helper. Errors and panics become [ErrHelper] located at
// the tag, except errors already raised by this package.
func (r *renderer) invoke(
	c *Context,
	name string,
	h Helper,
	params []any,
	hash map[string]any,
	pos Position,
	blk *block,
) (result any, err error) {
	opts := &Options{
		Name:    name,
		Params:  params,
		Hash:    hash,
		Context: c,
		r:       r,
	}

	if blk != nil {
		opts.block = true
		opts.BlockParams = blk.params
		opts.fn = blk.fn
		opts.inverse = blk.inverse
		opts.raw = blk.raw
		opts.body = blk.body
	}

	value := c.Model()
	if len(params) > 0 {
		value = params[0]
	}

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, r.helperError(name, pos, fmt.Errorf("panic: %v", p))
		}
	}()

	r.engine.logger.TraceContext(r.ctx, "invoke helper",
		slog.String("helper", name),
		slog.Int("params", len(params)),
		slog.Bool("block", blk != nil),
		slog.String("position", pos.String()),
	)

	result, err = h.Apply(value, opts)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.base != nil {
			return nil, err
		}

		return nil, r.helperError(name, pos, err)
	}

	return result, nil
}

func (r *renderer) helperError(name string, pos Position, cause error) *Error {
	return ErrHelper.Wrap(cause).
		With(slog.String("helper", name)).
		WithPosition(pos).
		WithSource(r.tmpl.Name, r.tmpl.source)
}

// locate attaches the tag position to an error that has none.
func (r *renderer) locate(err error, pos Position) error {
	e := WrapError(err)
	if _, ok := e.Position(); ok {
		return e
	}

	return e.WithPosition(pos).WithSource(r.tmpl.Name, r.tmpl.source)
}

func (r *renderer) errorf(pos Position, format string, args ...any) *Error {
	return ErrSyntax.Wrap(fmt.Errorf(format, args...)).
		WithPosition(pos).
		WithSource(r.tmpl.Name, r.tmpl.source)
}

func (r *renderer) partial(c *Context, n *Partial) error {
	name := n.Name

	if n.Dynamic != nil {
		v, _, err := r.eval(c, n.Dynamic.Call, n.Position, nil)
		if err != nil {
			return err
		}

		name = Stringify(v)
	}

	if r.depth >= r.engine.maxDepth {
		return ErrMaxDepthExceeded.
			With(slog.String("partial", name), slog.Int("depth", r.depth)).
			WithPosition(n.Position).
			WithSource(r.tmpl.Name, r.tmpl.source)
	}

	pc := c

	if n.Context != nil {
		v, err := r.evalParam(c, n.Context, n.Position)
		if err != nil {
			return err
		}

		pc = c.Push(v, nil)
	}

	if len(n.Hash) > 0 {
		hash, err := r.evalHash(c, n.Hash, n.Position)
		if err != nil {
			return err
		}

		pc = pc.sibling(hash)
	}

	sub := *r
	sub.depth++

	if name == PartialBlockName {
		pb := r.blocks
		if pb == nil {
			return r.partialNotFound(name, n)
		}

		sub.tmpl, sub.inline, sub.blocks = pb.tmpl, pb.inline, pb.parent

		return r.indent(&sub, pc, pb.nodes, n.Indent)
	}

	tmpl, err := r.lookup(name, n)
	if err != nil {
		return err
	}

	if tmpl == nil {
		if n.IsBlock {
			return r.render(pc, n.Block)
		}

		return r.partialNotFound(name, n)
	}

	r.engine.logger.TraceContext(r.ctx, "render partial",
		slog.String("partial", name),
		slog.Int("depth", sub.depth),
		templateAttr(r.tmpl),
	)

	sub.tmpl = tmpl

	if n.IsBlock {
		sub.blocks = &partialBlock{
			nodes:  n.Block,
			tmpl:   r.tmpl,
			inline: r.inline,
			parent: r.blocks,
		}
		sub.inline = r.define(n.Block, r.inline)
	}

	return r.indent(&sub, pc, tmpl.Nodes, n.Indent)
}

// lookup finds a partial by name: inline partials first, then the engine's
// registered partials and loader. A nil template means not found.
func (r *renderer) lookup(name string, n *Partial) (*Template, error) {
	if t, ok := r.inline.lookup(name); ok {
		return t, nil
	}

	t, err := r.engine.partial(r.ctx, name)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, ErrPartialNotFound):
		return nil, nil
	}

	var e *Error
	if errors.As(err, &e) && e.base != nil {
		return nil, err
	}

	return nil, ErrHelper.Wrap(err).
		With(slog.String("partial", name)).
		WithPosition(n.Position).
		WithSource(r.tmpl.Name, r.tmpl.source)
}

func (r *renderer) partialNotFound(name string, n *Partial) error {
	if !r.engine.failOnMissingPartial {
		r.engine.logger.TraceContext(r.ctx, "partial not found",
			slog.String("partial", name),
			templateAttr(r.tmpl),
		)

		return nil
	}

	return ErrPartialNotFound.
		With(slog.String("partial", name)).
		WithPosition(n.Position).
		WithSource(r.tmpl.Name, r.tmpl.source)
}

// indent renders nodes with sub, prefixing every output line with indent.
func (r *renderer) indent(sub *renderer, c *Context, nodes []Node, indent string) error {
	if indent == "" {
		return sub.render(c, nodes)
	}

	out, err := sub.capture(c, nodes)
	if err != nil {
		return err
	}

	return r.write(indentLines(out, indent))
}

// indentLines prefixes each line of s with indent. A trailing newline does
// not start a new line.
func indentLines(s, indent string) string {
	if s == "" {
		return ""
	}

	var sb strings.Builder

	sb.Grow(len(s) + len(indent))

	for line := range strings.SplitAfterSeq(s, "\n") {
		if line == "" {
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
	}

	return sb.String()
}
